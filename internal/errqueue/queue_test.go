package errqueue

import (
	"errors"
	"testing"
)

func TestPushAndCurrent(t *testing.T) {
	q := New()

	if _, ok := q.Current(); ok {
		t.Fatal("expected empty queue")
	}

	first := errors.New("store unavailable")
	q.Push(first)
	got, ok := q.Current()
	if !ok || got != first {
		t.Fatalf("expected first error current, got %v", got)
	}
}

func TestAckRevealsNext(t *testing.T) {
	q := New()
	first := errors.New("first")
	second := errors.New("second")
	third := errors.New("third")

	q.Push(first)
	q.Push(second)
	q.Push(third)

	if got, _ := q.Current(); got != first {
		t.Fatalf("expected first current, got %v", got)
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 queued, got %d", q.Len())
	}

	q.Ack()
	if got, _ := q.Current(); got != second {
		t.Fatalf("expected second after ack, got %v", got)
	}

	q.Ack()
	if got, _ := q.Current(); got != third {
		t.Fatalf("expected third after ack, got %v", got)
	}

	q.Ack()
	if _, ok := q.Current(); ok {
		t.Fatal("expected empty queue after final ack")
	}
}

func TestAckEmptyIsNoop(t *testing.T) {
	q := New()
	q.Ack()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestPushNilIgnored(t *testing.T) {
	q := New()
	q.Push(nil)
	if q.Len() != 0 {
		t.Fatalf("expected nil push ignored, got %d", q.Len())
	}
}
