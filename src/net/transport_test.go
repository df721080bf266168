package net

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/post"
)

func testTransport(t *testing.T) *HTTPTransport {
	return NewHTTPTransport(time.Second, time.Second, time.Second, common.NewTestEntry(t, "net"))
}

func testEnvelope(id string) *post.Envelope {
	return &post.Envelope{ID: id, Data: "{}", Signature: "sig", PublicKey: "0X04"}
}

func inboxServer(t *testing.T, status int, body string, got *[]*post.Envelope) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != InboxPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decoding submission: %v", err)
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestHTTPSubmit(t *testing.T) {
	var got []*post.Envelope
	srv := inboxServer(t, http.StatusOK, `{"ok":true}`, &got)
	defer srv.Close()

	err := testTransport(t).Submit(context.Background(), srv.URL, []*post.Envelope{testEnvelope("A")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("node should receive a one element array, got %v", got)
	}
}

func TestHTTPSubmitFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"not ok", http.StatusOK, `{"ok":false}`},
		{"no ok field", http.StatusOK, `{}`},
		{"not json", http.StatusOK, `ok`},
		{"server error", http.StatusInternalServerError, `{"ok":true}`},
	}

	for _, c := range cases {
		srv := inboxServer(t, c.status, c.body, nil)
		err := testTransport(t).Submit(context.Background(), srv.URL, []*post.Envelope{testEnvelope("A")})
		srv.Close()
		if !common.Is(err, common.SubmissionFailure) {
			t.Fatalf("%s: expected SubmissionFailure, got %v", c.name, err)
		}
	}

	err := testTransport(t).Submit(context.Background(), "http://127.0.0.1:1", []*post.Envelope{testEnvelope("A")})
	if !common.Is(err, common.SubmissionFailure) {
		t.Fatalf("unreachable: expected SubmissionFailure, got %v", err)
	}
}

func TestHTTPSubmitTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(done)

	trans := NewHTTPTransport(50*time.Millisecond, time.Second, time.Second, common.NewTestEntry(t, "net"))

	start := time.Now()
	err := trans.Submit(context.Background(), srv.URL, []*post.Envelope{testEnvelope("A")})
	if err == nil {
		t.Fatalf("slow node should time out")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("submission should be bounded by its timeout")
	}
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != OutboxPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"id":"A","data":"{}","signature":"s","publicKey":"k"}, 42, {"id":"B"}]`))
	}))
	defer srv.Close()

	trans := testTransport(t)

	envs, err := trans.Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(envs) != 2 || envs[0].ID != "A" || envs[1].ID != "B" {
		t.Fatalf("undecodable entries should be skipped, got %v", envs)
	}

	if err := trans.Ping(context.Background(), srv.URL); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestHTTPFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	trans := testTransport(t)
	if _, err := trans.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("non array outbox should fail")
	}

	srv.Close()
	if err := trans.Ping(context.Background(), srv.URL); err == nil {
		t.Fatalf("closed node should not answer pings")
	}
}

func TestInmemTransport(t *testing.T) {
	trans := NewInmemTransport()
	node := NewInmemEndpoint(testEnvelope("A"))
	trans.Connect("node", node)

	ctx := context.Background()

	if err := trans.Submit(ctx, "node", []*post.Envelope{testEnvelope("B")}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	envs, err := trans.Fetch(ctx, "node")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(envs) != 2 || envs[1].ID != "B" {
		t.Fatalf("outbox should contain A and B, got %v", envs)
	}

	node.SetRefuse(true)
	if err := trans.Submit(ctx, "node", []*post.Envelope{testEnvelope("C")}); !common.Is(err, common.SubmissionFailure) {
		t.Fatalf("refused submission should be a SubmissionFailure, got %v", err)
	}
	if node.Calls() != 2 || node.Accepted() != 1 {
		t.Fatalf("calls %d accepted %d", node.Calls(), node.Accepted())
	}

	trans.Disconnect("node")
	if err := trans.Ping(ctx, "node"); err == nil {
		t.Fatalf("disconnected target should not answer")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	trans.Connect("node", node)
	if _, err := trans.Fetch(cctx, "node"); err == nil {
		t.Fatalf("cancelled context should fail")
	}
}

func TestConnectivity(t *testing.T) {
	ctx := context.Background()

	s := NewStaticConnectivity(false)
	if s.Connected(ctx) {
		t.Fatalf("should be offline")
	}
	s.Set(true)
	if !s.Connected(ctx) {
		t.Fatalf("should be online")
	}

	f := ConnectivityFunc(func(context.Context) bool { return true })
	if !f.Connected(ctx) {
		t.Fatalf("func connectivity should be online")
	}

	none := &InterfaceConnectivity{interfaces: func() ([]net.Interface, error) { return nil, nil }}
	if none.Connected(ctx) {
		t.Fatalf("no interface should mean offline")
	}

	loop := &InterfaceConnectivity{interfaces: func() ([]net.Interface, error) {
		return []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}}, nil
	}}
	if loop.Connected(ctx) {
		t.Fatalf("loopback only should mean offline")
	}
}

func TestStreamURL(t *testing.T) {
	cases := map[string]string{
		"http://10.0.0.1:3000":  "ws://10.0.0.1:3000/_openherd/stream",
		"https://node.example/": "wss://node.example/_openherd/stream",
		"ws://already:3000":     "ws://already:3000/_openherd/stream",
	}
	for in, out := range cases {
		if got := StreamURL(in); got != out {
			t.Fatalf("%s: expected %s, got %s", in, out, got)
		}
	}
}
