package token

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("unit-test-secret", time.Minute)

	signed, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	subject, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "alice" {
		t.Errorf("subject = %q, want %q", subject, "alice")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("unit-test-secret", -time.Minute)

	signed, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := m.Verify(signed); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", time.Minute)
	verifier := NewManager("secret-two", time.Minute)

	signed, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(signed); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("unit-test-secret", time.Minute)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(input); err != ErrInvalidToken {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", input, err)
		}
	}
}
