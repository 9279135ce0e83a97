package events

import (
	"sync"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()

	var mu sync.Mutex
	var received []SessionStateChangedEvent

	unsub := bus.Subscribe(func(e SessionStateChangedEvent) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})
	defer unsub()

	bus.Publish(SessionStateChangedEvent{State: "running", Previous: "starting"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for event delivery")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if received[0].State != "running" || received[0].Previous != "starting" {
		t.Errorf("unexpected event payload: %+v", received[0])
	}
}

func TestSubscriberTypeIsolation(t *testing.T) {
	bus := New()

	var mu sync.Mutex
	crashes := 0

	unsub := bus.Subscribe(func(e SessionCrashedEvent) {
		mu.Lock()
		crashes++
		mu.Unlock()
	})
	defer unsub()

	// A state change must not reach the crash subscriber.
	bus.Publish(SessionStateChangedEvent{State: "idle"})
	bus.Publish(SessionCrashedEvent{ExitCode: 1, Restarts: 1})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := crashes
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for crash event")
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if crashes != 1 {
		t.Errorf("crash subscriber received %d events, want 1", crashes)
	}
}

func TestUnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(s string) {})
	unsub()
}
