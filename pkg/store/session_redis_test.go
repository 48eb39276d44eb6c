package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"capsarc/pkg/domain"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions := NewRedisSessionStore(mr.Addr(), "", time.Minute)

	token, err := sessions.NewSession(domain.Session{
		PrincipalID: 42,
		Username:    "jdoe",
		Kind:        domain.KindUser,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	sess, ok, err := sessions.GetSession(token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !ok {
		t.Fatal("session not found")
	}
	if sess.PrincipalID != 42 || sess.Username != "jdoe" || sess.Kind != domain.KindUser || !sess.LoggedIn {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := sessions.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := sessions.GetSession(token); ok {
		t.Fatal("session still resolvable after delete")
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions := NewRedisSessionStore(mr.Addr(), "", time.Minute)

	token, err := sessions.NewSession(domain.Session{PrincipalID: 1, Username: "u", Kind: domain.KindUser})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := sessions.GetSession(token); ok {
		t.Fatal("session survived TTL")
	}
}

func TestRedisSessionStoreUnknownToken(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions := NewRedisSessionStore(mr.Addr(), "", time.Minute)
	if _, ok, err := sessions.GetSession("no-such-token"); ok || err != nil {
		t.Fatalf("unknown token: ok=%v err=%v", ok, err)
	}
}
