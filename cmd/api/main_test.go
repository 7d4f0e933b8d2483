package main

import (
	"net/http"
	"testing"
	"time"

	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
)

func TestNewServerWriteTimeoutCoversChatTurn(t *testing.T) {
	cfg := &appconfig.Config{Port: "9000", LLMTimeout: 20 * time.Second, LLMMaxRetries: 1}

	srv := newServer(cfg, http.NotFoundHandler())

	if srv.Addr != ":9000" {
		t.Fatalf("expected addr :9000, got %s", srv.Addr)
	}
	// Two calls per turn (reply + intent), each with up to two attempts.
	if want := 85 * time.Second; srv.WriteTimeout != want {
		t.Fatalf("expected write timeout %s, got %s", want, srv.WriteTimeout)
	}
}

func TestNewServerKeepsMinimumWriteTimeout(t *testing.T) {
	cfg := &appconfig.Config{Port: "8000", LLMTimeout: time.Second}

	srv := newServer(cfg, http.NotFoundHandler())

	if srv.WriteTimeout != 15*time.Second {
		t.Fatalf("expected 15s write timeout, got %s", srv.WriteTimeout)
	}
}
