package pool

import (
	"testing"
	"time"

	"modeld/internal/sandbox"
)

func eventEmittingLoader() sandbox.Loader {
	return sandbox.NewEchoLoader(map[string]func([]sandbox.Pair) ([]sandbox.Pair, error){
		"order-placed": func(args []sandbox.Pair) ([]sandbox.Pair, error) {
			return append(args, sandbox.Pair{"event", "order.placed"}), nil
		},
		"silent": func(args []sandbox.Pair) ([]sandbox.Pair, error) {
			return args, nil
		},
	})
}

func TestDomainEventExtractsNameAndFields(t *testing.T) {
	name, fields, ok := domainEvent(map[string]any{"event": "order.placed", "id": "7"})
	if !ok {
		t.Fatalf("expected ok")
	}
	if name != "order.placed" {
		t.Fatalf("expected order.placed, got %q", name)
	}
	if _, has := fields["event"]; has {
		t.Fatalf("event key must not leak into fields")
	}
	if fields["id"] != "7" {
		t.Fatalf("expected id field to survive, got %+v", fields)
	}
}

func TestDomainEventAbsentWhenNoEventKey(t *testing.T) {
	if _, _, ok := domainEvent(map[string]any{"id": "7"}); ok {
		t.Fatalf("expected no domain event without an event key")
	}
	if _, _, ok := domainEvent("not a map"); ok {
		t.Fatalf("expected no domain event for non-map values")
	}
}

func TestJobResultEventIsPublished(t *testing.T) {
	pub := NewMemoryPublisher()
	p := newTestPool(t, Config{Min: 1, Max: 1, Publisher: pub})
	p.mu.Lock()
	p.loader = eventEmittingLoader()
	p.mu.Unlock()
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}

	res, err := p.Submit("order-placed", nil)
	if err != nil || res.HasError {
		t.Fatalf("Submit: err=%v res=%+v", err, res)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, e := range pub.Events() {
			if e.Name == "order.placed" {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected order.placed event to be published, got %+v", pub.Events())
}

func TestJobResultWithoutEventKeyPublishesNothingExtra(t *testing.T) {
	pub := NewMemoryPublisher()
	p := newTestPool(t, Config{Min: 1, Max: 1, Publisher: pub})
	p.mu.Lock()
	p.loader = eventEmittingLoader()
	p.mu.Unlock()
	if err := p.StartThreads(); err != nil {
		t.Fatalf("StartThreads: %v", err)
	}

	res, err := p.Submit("silent", nil)
	if err != nil || res.HasError {
		t.Fatalf("Submit: err=%v res=%+v", err, res)
	}

	time.Sleep(50 * time.Millisecond)
	for _, e := range pub.Events() {
		if e.Name != EventNoJobsRunning {
			t.Fatalf("expected only lifecycle events, got %+v", e)
		}
	}
}
