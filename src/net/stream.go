package net

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/openherd/openherd/src/post"
)

// StreamURL turns a node base url into the url of its websocket stream.
func StreamURL(target string) string {
	target = strings.TrimSuffix(target, "/")
	switch {
	case strings.HasPrefix(target, "https://"):
		target = "wss://" + strings.TrimPrefix(target, "https://")
	case strings.HasPrefix(target, "http://"):
		target = "ws://" + strings.TrimPrefix(target, "http://")
	}
	return target + StreamPath
}

// Watch follows the stream of target and calls fn with every envelope the
// node accepts, until ctx is done or the connection drops. It returns nil when
// ctx ends the stream.
func Watch(ctx context.Context, target string, fn func(*post.Envelope)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, StreamURL(target), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		env := new(post.Envelope)
		if err := conn.ReadJSON(env); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		fn(env)
	}
}
