package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartScheduler_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	firstRun := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		StartScheduler(ctx, Job{
			Name:     "test",
			Interval: time.Hour,
			Run: func(context.Context, time.Time) int {
				runs.Add(1)
				select {
				case firstRun <- struct{}{}:
				default:
				}
				return 0
			},
		})
	}()

	select {
	case <-firstRun:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestStartScheduler_Ticks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan struct{}, 10)
	go StartScheduler(ctx, Job{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context, time.Time) int {
			select {
			case ticks <- struct{}{}:
			default:
			}
			return 1
		},
	})

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatalf("only %d runs before timeout", i)
		}
	}
}
