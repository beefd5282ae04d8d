package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatcherRunsJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	if err := d.Enqueue(context.Background(), "block", func() error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Enqueue blocker: %v", err)
	}
	<-started

	// Worker is busy; fill the one queue slot, then overflow.
	if err := d.Enqueue(context.Background(), "fill", func() error { return nil }); err != nil {
		t.Fatalf("Enqueue filler: %v", err)
	}
	if err := d.Enqueue(context.Background(), "overflow", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	d.Close()
	d.Close()

	err := d.Enqueue(context.Background(), "late", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("err = %v, want ErrQueueClosed", err)
	}
}

func TestDispatcherEnqueueDuringClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 4})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := d.Enqueue(context.Background(), "spam", func() error { return nil })
				if err != nil && !errors.Is(err, ErrQueueClosed) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("Enqueue: %v", err)
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	d.Close()
	close(stop)
	wg.Wait()
}
