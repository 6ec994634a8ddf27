package test

import (
	"context"

	goSession "github.com/tickora/goSession"
	"github.com/tickora/goSession/guard"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	engine, _ := goSession.New().
		WithBaseURL("https://api.tickora.example").
		WithRedis(rdb).
		Build()
	_ = engine
}

// ExampleEngine_AuthorizeRoute shows a typical navigation decision.
func ExampleEngine_AuthorizeRoute() {
	var engine *goSession.Engine
	decision, err := engine.AuthorizeRoute(context.Background(), guard.Navigation{
		Path:  "/organization/events",
		Ready: true,
	})
	if err != nil {
		_ = err
	}
	_ = decision
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *goSession.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}
