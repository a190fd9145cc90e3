package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemorySessionStore(t *testing.T) {
	s := NewMemorySessionStore()
	token, err := s.NewSession(42)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	id, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || id != 42 {
		t.Fatalf("GetUserIDByToken: %v %v %d", err, ok, id)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("token must be gone after delete")
	}
	// Deleting again is a no-op.
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession again: %v", err)
	}
}

func TestRedisSessionStore(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Hour)

	token, err := s.NewSession(7)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	id, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || id != 7 {
		t.Fatalf("GetUserIDByToken: %v %v %d", err, ok, id)
	}
	if _, ok, _ := s.GetUserIDByToken("no-such-token"); ok {
		t.Fatal("unknown token must not resolve")
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("token must be gone after delete")
	}
}

func TestRedisSessionStoreTTL(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "", time.Minute)

	token, err := s.NewSession(7)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	redis.FastForward(2 * time.Minute)
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("token must expire with the TTL")
	}
}
