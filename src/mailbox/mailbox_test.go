package mailbox

import (
	"context"
	"testing"
	"time"
)

func TestFIFOWithinCapacity(t *testing.T) {
	var mb Mailbox[int]
	sender, receiver := mb.Initialize()

	ctx := context.Background()

	for i := 0; i < Capacity; i++ {
		if err := sender.Send(ctx, i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}

	for i := 0; i < Capacity; i++ {
		item, err := receiver.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if item != i {
			t.Fatalf("out of order: got %d, want %d", item, i)
		}
	}
}

func TestSendSuspendsWhenFull(t *testing.T) {
	var mb Mailbox[string]
	sender, receiver := mb.Initialize()

	ctx := context.Background()

	for i := 0; i < Capacity; i++ {
		if err := sender.Send(ctx, "filler"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	sent := make(chan error, 1)
	go func() {
		sent <- sender.Send(ctx, "overflow")
	}()

	select {
	case err := <-sent:
		t.Fatalf("Send on a full mailbox returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
		// still suspended, as expected
	}

	// Freeing one slot lets the suspended send complete with its payload
	// intact.
	if _, err := receiver.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("suspended Send: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("suspended Send never completed")
	}

	// Drain the fillers; the overflow item arrives last, in FIFO order.
	var last string
	for i := 0; i < Capacity; i++ {
		item, err := receiver.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		last = item
	}
	if last != "overflow" {
		t.Fatalf("expected the suspended item last, got %q", last)
	}
}

func TestNextSuspendsWhenEmpty(t *testing.T) {
	var mb Mailbox[int]
	sender, receiver := mb.Initialize()

	got := make(chan int, 1)
	go func() {
		item, err := receiver.Next(context.Background())
		if err != nil {
			t.Errorf("Next: %v", err)
			return
		}
		got <- item
	}()

	select {
	case <-got:
		t.Fatal("Next on an empty mailbox returned early")
	case <-time.After(50 * time.Millisecond):
	}

	if err := sender.Send(context.Background(), 42); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case item := <-got:
		if item != 42 {
			t.Fatalf("got %d, want 42", item)
		}
	case <-time.After(time.Second):
		t.Fatal("suspended Next never completed")
	}
}

func TestSendCancellation(t *testing.T) {
	var mb Mailbox[int]
	sender, _ := mb.Initialize()

	for i := 0; i < Capacity; i++ {
		if err := sender.Send(context.Background(), i); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sender.Send(ctx, 99); err != context.DeadlineExceeded {
		t.Fatalf("Send on a full mailbox should honour the context, got %v", err)
	}
}

func TestUninitializedHandles(t *testing.T) {
	var sender *Sender[int]
	if err := sender.Send(context.Background(), 1); err != ErrNotInitialized {
		t.Fatalf("nil Sender should report ErrNotInitialized, got %v", err)
	}

	var receiver *Receiver[int]
	if _, err := receiver.Next(context.Background()); err != ErrNotInitialized {
		t.Fatalf("nil Receiver should report ErrNotInitialized, got %v", err)
	}
}
