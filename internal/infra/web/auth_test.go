//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionManager(t *testing.T) {
	t.Run("should round-trip the session id through the cookie", func(t *testing.T) {
		m := NewSessionManager("secret", false, time.Hour)

		rec := httptest.NewRecorder()
		sid, err := m.Mint(rec)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if sid == "" {
			t.Fatal("expected a session id")
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		got, err := m.SessionID(req)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got != sid {
			t.Errorf("expected '%s', got '%s'", sid, got)
		}
	})

	t.Run("should reject a missing cookie", func(t *testing.T) {
		m := NewSessionManager("secret", false, time.Hour)
		if _, err := m.SessionID(httptest.NewRequest(http.MethodGet, "/", nil)); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("should reject a cookie signed with another key", func(t *testing.T) {
		minter := NewSessionManager("secret-a", false, time.Hour)
		verifier := NewSessionManager("secret-b", false, time.Hour)

		rec := httptest.NewRecorder()
		if _, err := minter.Mint(rec); err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		if _, err := verifier.SessionID(req); err == nil {
			t.Error("expected a foreign signature to be rejected")
		}
	})

	t.Run("should reject an expired session", func(t *testing.T) {
		m := NewSessionManager("secret", false, -time.Minute)

		rec := httptest.NewRecorder()
		if _, err := m.Mint(rec); err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		if _, err := m.SessionID(req); err == nil {
			t.Error("expected an expired session to be rejected")
		}
	})
}
