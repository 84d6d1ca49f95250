package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"rfpdash/internal"
	"rfpdash/internal/config"
	"rfpdash/internal/views"
)

type statsFunc func(ctx context.Context) (internal.DashboardStats, error)

func (f statsFunc) DashboardStats(ctx context.Context) (internal.DashboardStats, error) {
	return f(ctx)
}

type memSaver struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSaver) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestRunRefreshesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	source := statsFunc(func(context.Context) (internal.DashboardStats, error) {
		calls++
		if calls == 2 {
			return internal.DashboardStats{}, errors.New("backend down")
		}
		return internal.DashboardStats{
			PipelineStatus: internal.PipelineStatus{Labels: []string{"Discovered", "Won"}, Counts: []int{4, 2}},
		}, nil
	})
	saver := &memSaver{data: map[string][]byte{}}

	svc := NewService(source, saver, config.Config{DashboardRefreshSec: 30}, nil)
	svc.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	refreshed := make(chan views.DashboardView, 8)
	svc.OnRefresh = func(v views.DashboardView) {
		select {
		case refreshed <- v:
		default:
		}
		if len(refreshed) >= 2 {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("listener did not stop")
	}

	first := <-refreshed
	if first.TotalRFPs != 4 || first.Won != 2 || first.WinRate.String() != "50%" {
		t.Fatalf("unexpected dashboard %+v", first)
	}
	if calls < 3 {
		t.Fatalf("expected a failed cycle to be followed by another refresh, got %d calls", calls)
	}
	if _, ok := saver.data[StatsKey]; !ok {
		t.Fatalf("expected stats to be saved under %s", StatsKey)
	}
}

func TestNewServiceUsesConfiguredInterval(t *testing.T) {
	svc := NewService(nil, nil, config.Config{DashboardRefreshSec: 45}, nil)
	if svc.interval != 45*time.Second {
		t.Fatalf("expected 45s interval, got %s", svc.interval)
	}
}
