package wake

import (
	"context"
	"testing"
	"time"
)

func TestSignalBeforeWait(t *testing.T) {
	slot := Slot{}

	slot.Signal()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := slot.Wait(ctx); err != nil {
		t.Fatalf("Wait after Signal should return immediately, got %v", err)
	}
}

func TestSignalsCoalesce(t *testing.T) {
	slot := Slot{}

	for i := 0; i < 5; i++ {
		slot.Signal()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := slot.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// The 5 signals collapsed into one; the slot must be idle again.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()

	if err := slot.Wait(ctx2); err != context.DeadlineExceeded {
		t.Fatalf("second Wait should time out, got %v", err)
	}
}

func TestSignalWakesWaiter(t *testing.T) {
	slot := Slot{}

	done := make(chan error, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- slot.Wait(ctx)
	}()

	// Give the waiter time to park, then signal from another goroutine, as
	// an interrupt handler would.
	time.Sleep(10 * time.Millisecond)
	slot.Signal()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestSecondWaiterRejected(t *testing.T) {
	slot := Slot{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	parked := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(parked)
		done <- slot.Wait(ctx)
	}()

	<-parked
	time.Sleep(10 * time.Millisecond)

	if err := slot.Wait(ctx); err != ErrTooManyWaiters {
		t.Fatalf("second waiter should be rejected, got %v", err)
	}

	// The first waiter is still parked and must receive the wakeup.
	slot.Signal()

	if err := <-done; err != nil {
		t.Fatalf("first waiter: %v", err)
	}
}

func TestWaitCancellation(t *testing.T) {
	slot := Slot{}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- slot.Wait(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; err != context.Canceled {
		t.Fatalf("cancelled Wait should return context.Canceled, got %v", err)
	}

	// The slot must be reusable after a cancelled wait.
	slot.Signal()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()

	if err := slot.Wait(ctx2); err != nil {
		t.Fatalf("Wait after cancelled Wait: %v", err)
	}
}
