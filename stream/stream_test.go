package stream

import (
	"testing"
	"time"
)

func TestValueGetSet(t *testing.T) {
	v := NewValue(1)
	if got := v.Get(); got != 1 {
		t.Fatalf("expected initial value 1, got %d", got)
	}

	v.Set(2)
	if got := v.Get(); got != 2 {
		t.Fatalf("expected 2 after Set, got %d", got)
	}
}

func TestSubscribeReceivesCurrentValueFirst(t *testing.T) {
	v := NewValue("hello")
	ch, cancel := v.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		if got != "hello" {
			t.Fatalf("expected current value on subscribe, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the current value")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	<-ch // initial value

	v.Set(42)
	select {
	case got := <-ch:
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the update")
	}
}

func TestSlowSubscriberGetsLatestValue(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	// Subscriber never drains; each publish replaces the pending value.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	// The buffered channel holds exactly one value: the most recent one
	// that replaced whatever was pending.
	var last int
	for {
		select {
		case got := <-ch:
			last = got
			continue
		default:
		}
		break
	}
	if last != 3 {
		t.Fatalf("expected latest value 3, got %d", last)
	}
}

func TestUpdateAppliesFunctionAndPublishes(t *testing.T) {
	v := NewValue([]int{1, 2})

	result := v.Update(func(cur []int) []int {
		next := append(append([]int{}, cur...), 3)
		return next
	})

	if len(result) != 3 || result[2] != 3 {
		t.Fatalf("unexpected update result %v", result)
	}
	if got := v.Get(); len(got) != 3 {
		t.Fatalf("expected published value to have 3 elements, got %v", got)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()

	v.Set(99)
	select {
	case got, ok := <-ch:
		if ok {
			t.Fatalf("cancelled subscriber received %d", got)
		}
	default:
	}
}

func TestConcurrentSetAndGet(t *testing.T) {
	v := NewValue(0)
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			v.Set(i)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			if got := v.Get(); got != 999 {
				t.Fatalf("expected final value 999, got %d", got)
			}
			return
		default:
			v.Get()
		}
	}
}
