package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestInspectReadsIssuedClaims(t *testing.T) {
	iss, err := NewIssuer([]byte("k"), 15*time.Minute, "test")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := iss.Issue("u1", "s1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Inspect(tok)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if claims.UserID() != "u1" || claims.SID != "s1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Expired(time.Now(), 0) {
		t.Fatal("fresh token reported expired")
	}
	if !claims.Expired(time.Now().Add(16*time.Minute), 0) {
		t.Fatal("token not reported expired after ttl")
	}
}

func TestInspectDoesNotVerifySignature(t *testing.T) {
	a, _ := NewIssuer([]byte("key-a"), time.Minute, "")
	tok, _ := a.Issue("u1", "s1")

	if _, err := Inspect(tok); err != nil {
		t.Fatalf("Inspect must accept tokens signed with unknown keys: %v", err)
	}

	b, _ := NewIssuer([]byte("key-b"), time.Minute, "")
	if _, err := b.Verify(tok); err == nil {
		t.Fatal("Verify accepted a token signed with a different key")
	}
}

func TestInspectRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "not.a.jwt", "abc"} {
		if _, err := Inspect(in); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Inspect(%q) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	c := &AccessClaims{UID: "u"}
	if c.Expired(time.Now().Add(100*365*24*time.Hour), 0) {
		t.Fatal("claims without exp reported expired")
	}
	var nilClaims *AccessClaims
	if nilClaims.UserID() != "" || !nilClaims.Expiry().IsZero() {
		t.Fatal("nil claims must be empty")
	}
}

func TestNewIssuerValidation(t *testing.T) {
	if _, err := NewIssuer(nil, time.Minute, ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewIssuer([]byte("k"), 0, ""); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
