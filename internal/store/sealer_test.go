package store

import (
	"bytes"
	"testing"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed := s.Seal([]byte("access-token"), "abc")
	if bytes.Contains(sealed, []byte("access-token")) {
		t.Fatal("sealed value contains plaintext")
	}
	opened, err := s.Open(sealed, "abc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(opened) != "access-token" {
		t.Errorf("expected 'access-token', got %q", opened)
	}
}

func TestSealer_WrongAssociatedData(t *testing.T) {
	s := testSealer(t)

	sealed := s.Seal([]byte("access-token"), "session-a")
	if _, err := s.Open(sealed, "session-b"); err == nil {
		t.Fatal("expected error when opening with another session's id")
	}
}

func TestSealer_Empty(t *testing.T) {
	s := testSealer(t)

	if sealed := s.Seal(nil, "x"); sealed != nil {
		t.Fatalf("expected nil, got %x", sealed)
	}
	opened, err := s.Open(nil, "x")
	if err != nil || opened != nil {
		t.Fatalf("expected nil, nil; got %q, %v", opened, err)
	}
}

func TestNewSealer_BadKey(t *testing.T) {
	if _, err := NewSealer([]byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}
