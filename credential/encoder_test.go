package credential

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSessionRecordRoundTrip(t *testing.T) {
	in := &Session{
		Role:         RoleOrganizer,
		StaffKind:    StaffOwner,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		AccessExpiry: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		LocalExpiry:  time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC),
		Profile: Profile{
			FirstName:        "Ada",
			Email:            "ada@example.com",
			EmailConfirmedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			OrganizationID:   "org-9",
			Extra:            []byte(`{"locale":"en"}`),
		},
	}

	data, err := EncodeSession(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeSession(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Role != in.Role || out.StaffKind != in.StaffKind {
		t.Fatalf("role mismatch: got %s/%s", out.Role, out.StaffKind)
	}
	if out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Fatalf("token mismatch")
	}
	if !out.AccessExpiry.Equal(in.AccessExpiry) || !out.LocalExpiry.Equal(in.LocalExpiry) {
		t.Fatalf("expiry mismatch")
	}
	if out.Profile.FirstName != "Ada" || out.Profile.OrganizationID != "org-9" {
		t.Fatalf("profile mismatch: %+v", out.Profile)
	}
	if !bytes.Equal(out.Profile.Extra, in.Profile.Extra) {
		t.Fatalf("extra passthrough mismatch: %s", out.Profile.Extra)
	}
}

func TestDecodeSessionRejectsCorruptRecords(t *testing.T) {
	cases := map[string][]byte{
		"garbage":        []byte("not json"),
		"missing schema": []byte(`{"role":"attendee","access_token":"a"}`),
		"future schema":  []byte(`{"schema":99,"role":"attendee","access_token":"a"}`),
		"unknown role":   []byte(`{"schema":1,"role":"superuser","access_token":"a"}`),
		"empty token":    []byte(`{"schema":1,"role":"attendee","access_token":""}`),
	}

	for name, data := range cases {
		if _, err := DecodeSession(data); !errors.Is(err, ErrCorruptRecord) {
			t.Fatalf("%s: expected ErrCorruptRecord, got %v", name, err)
		}
	}
}

func TestDecodeSessionToleratesUnknownFields(t *testing.T) {
	data := []byte(`{"schema":1,"role":"attendee","access_token":"a","some_future_field":true}`)

	sess, err := DecodeSession(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sess.Role != RoleAttendee {
		t.Fatalf("unexpected role %s", sess.Role)
	}
}

func TestGuestRecordRoundTrip(t *testing.T) {
	in := &GuestIdentity{
		AccessToken: "guest-token",
		ExpiresAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := EncodeGuest(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeGuest(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.AccessToken != in.AccessToken || !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("guest round trip mismatch: %+v", out)
	}
}

func TestRoleFamily(t *testing.T) {
	if RoleAttendee.Family() != FamilyAttendee {
		t.Fatalf("attendee must map to attendee family")
	}
	for _, role := range []Role{RoleOrganizer, RoleOperator, RoleAdmin, RolePromoter} {
		if role.Family() != FamilyOrganization {
			t.Fatalf("%s must map to organization family", role)
		}
	}
}
