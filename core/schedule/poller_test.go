package schedule

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPollerAppliesFreshResponses(t *testing.T) {
	repo := newFakeRepo()
	seedMondayMath(repo)
	resolver := NewResolver(repo)

	var (
		mu      sync.Mutex
		updates int
		last    map[string]EffectiveEntry
	)
	p := NewPoller(
		resolver.Resolve,
		5*time.Millisecond,
		func(seq uint64, effective map[string]EffectiveEntry) {
			mu.Lock()
			updates++
			last = effective
			mu.Unlock()
		},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, monday, Monday)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if updates == 0 {
		t.Fatal("poller never delivered an update")
	}
	if _, ok := last["6A_0"]; !ok {
		t.Errorf("last update = %+v, want the resolved schedule", last)
	}
}

func TestPollerDiscardsStaleResponses(t *testing.T) {
	applied := make([]uint64, 0, 4)
	p := NewPoller(nil, time.Second, func(seq uint64, _ map[string]EffectiveEntry) {
		applied = append(applied, seq)
	}, nil)

	// a slow request (seq 1) lands after a fresh one (seq 2): last request
	// wins, not last response arrived
	p.apply(2, map[string]EffectiveEntry{})
	p.apply(1, map[string]EffectiveEntry{})
	p.apply(3, map[string]EffectiveEntry{})
	p.apply(3, map[string]EffectiveEntry{})

	want := []uint64{2, 3}
	if len(applied) != len(want) {
		t.Fatalf("applied sequences = %v, want %v", applied, want)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Errorf("applied sequences = %v, want %v", applied, want)
			break
		}
	}
}

func TestPollerReportsErrors(t *testing.T) {
	boom := make(chan error, 1)
	resolve := func(context.Context, string, Weekday) (map[string]EffectiveEntry, error) {
		return nil, context.DeadlineExceeded
	}
	p := NewPoller(resolve, time.Second, nil, func(err error) {
		select {
		case boom <- err:
		default:
		}
	})

	p.fetch(context.Background(), monday, Monday)
	select {
	case err := <-boom:
		if err != context.DeadlineExceeded {
			t.Errorf("onError got %v", err)
		}
	default:
		t.Error("fetch error was not reported")
	}
}
