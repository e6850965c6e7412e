package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	client := hub.Register("trip-1")
	defer hub.Unregister(client)

	hub.Broadcast("trip-1", []byte("hello"))
	hub.Broadcast("trip-2", []byte("other"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	select {
	case msg := <-client.Send:
		t.Fatalf("received message for another trip: %q", msg)
	default:
	}
}

func TestHubBroadcastJSON(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-1")
	defer hub.Unregister(client)

	if err := hub.BroadcastJSON("trip-1", map[string]float64{"latitude": 21.0285}); err != nil {
		t.Fatalf("broadcast json: %v", err)
	}
	if msg := <-client.Send; string(msg) != `{"latitude":21.0285}` {
		t.Fatalf("unexpected payload %s", msg)
	}
	if err := hub.BroadcastJSON("trip-1", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-1")
	defer hub.Unregister(client)

	for i := 0; i < clientBuffer+10; i++ {
		hub.Broadcast("trip-1", []byte("p"))
	}
	if len(client.Send) != clientBuffer {
		t.Fatalf("expected buffer to be full without blocking, got %d", len(client.Send))
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "rides:abc:broadcast" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if tripIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected trip id")
	}
	for _, bad := range []string{"bad", "rides::broadcast", "tracking:abc:broadcast"} {
		if tripIDFromChannel(bad) != "" {
			t.Fatalf("expected empty trip id for %q", bad)
		}
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-2")
	if hub.Subscribers("trip-2") != 1 {
		t.Fatalf("expected one subscriber")
	}
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Subscribers("trip-2") != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestHubRedisFanOutAcrossInstances(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	hubA := NewHub(rdbA)
	defer hubA.Close()
	hubB := NewHub(rdbB)
	defer hubB.Close()

	local := hubA.Register("trip-9")
	defer hubA.Unregister(local)
	remote := hubB.Register("trip-9")
	defer hubB.Unregister(remote)

	hubA.Broadcast("trip-9", []byte("ping"))

	for name, c := range map[string]*Client{"local": local, "remote": remote} {
		select {
		case msg := <-c.Send:
			if string(msg) != "ping" {
				t.Fatalf("%s: unexpected message %q", name, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: timeout waiting for broadcast", name)
		}
	}

	select {
	case msg := <-local.Send:
		t.Fatalf("origin instance received its own echo: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}

	if err := rdbB.Publish(context.Background(), "rides:trip-9:broadcast", "no-origin").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case msg := <-local.Send:
		t.Fatalf("message without origin should be ignored: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRedisUnavailable(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	defer hub.Close()
	node := hub.Register("trip-bad")
	defer hub.Unregister(node)

	hub.Broadcast("trip-bad", []byte("ping"))
	if msg := <-node.Send; string(msg) != "ping" {
		t.Fatalf("local delivery should survive redis errors")
	}
}
