package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string](1)
	ch := bus.Subscribe()
	bus.Publish("hello")
	if v := <-ch; v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := New[int](2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	if len(ch) != 2 {
		t.Fatalf("expected 2 buffered events got %d", len(ch))
	}
	if v := <-ch; v != 0 {
		t.Fatalf("expected oldest event 0 got %d", v)
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int](1)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(1)
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected subscription after close to be closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New[float64](1)
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
