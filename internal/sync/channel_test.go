package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// echoServer accepts one websocket upgrade and reads until the peer closes.
func echoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLeaveRightAfterJoinReturns(t *testing.T) {
	srv, url := echoServer(t)
	defer srv.Close()

	ch := NewChannel(url, "", 1, NewStore(1))
	require.NoError(t, ch.Join(context.Background()))

	// Leave must observe the same done channel the run goroutine closes,
	// even when it runs before that goroutine gets scheduled at all.
	finished := make(chan struct{})
	go func() {
		ch.Leave()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("Leave did not return")
	}
}

func TestJoinAgainstDeadServerFails(t *testing.T) {
	srv, url := echoServer(t)
	srv.Close()

	ch := NewChannel(url, "", 1, NewStore(1))
	err := ch.Join(context.Background())
	require.Error(t, err)

	// The failed join must leave the channel reusable: Leave is a no-op
	// and must not block.
	finished := make(chan struct{})
	go func() {
		ch.Leave()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("Leave did not return after failed Join")
	}
}
