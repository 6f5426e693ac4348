package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendEncodesBase64BothWays(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request: %v", err)
		}
		received = string(body)
		w.Write([]byte(base64.StdEncoding.EncodeToString([]byte("HNHBK:1:3+answer'")) + "\r\n"))
	}))
	defer server.Close()

	tr := NewHTTP(DefaultConfig(server.URL))
	got, err := tr.Send(context.Background(), []byte("HNHBK:1:3+request'"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(got) != "HNHBK:1:3+answer'" {
		t.Fatalf("response = %q", got)
	}
	decoded, err := base64.StdEncoding.DecodeString(received)
	if err != nil {
		t.Fatalf("request body not base64: %v", err)
	}
	if string(decoded) != "HNHBK:1:3+request'" {
		t.Fatalf("request = %q", decoded)
	}
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(base64.StdEncoding.EncodeToString([]byte("ok'"))))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.RetryDelay = time.Millisecond
	tr := NewHTTP(cfg)
	got, err := tr.Send(context.Background(), []byte("msg"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(got) != "ok'" || attempts != 3 {
		t.Fatalf("got %q after %d attempts", got, attempts)
	}
}

func TestSendGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	tr := NewHTTP(cfg)
	_, err := tr.Send(context.Background(), []byte("msg"))
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("got %v, want ErrBadStatus", err)
	}
}

func TestSendRejectsNonBase64Response(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not base64!"))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.MaxRetries = 0
	tr := NewHTTP(cfg)
	if _, err := tr.Send(context.Background(), []byte("msg")); err == nil {
		t.Fatal("garbage response accepted")
	}
}

func TestSendHonorsContextBetweenAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.RetryDelay = time.Minute
	tr := NewHTTP(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.Send(ctx, []byte("msg"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	if d := backoffDelay(time.Second, 30*time.Second, 1); d != time.Second {
		t.Fatalf("attempt 1 = %v", d)
	}
	if d := backoffDelay(time.Second, 30*time.Second, 3); d != 4*time.Second {
		t.Fatalf("attempt 3 = %v", d)
	}
	if d := backoffDelay(time.Second, 2*time.Second, 5); d != 2*time.Second {
		t.Fatalf("capped delay = %v", d)
	}
}
