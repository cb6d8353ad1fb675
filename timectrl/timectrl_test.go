package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"
)

var start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestTimeControllerSetTime(t *testing.T) {
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerAcceleratedRun(t *testing.T) {
	tc := NewTimeController(start, time.Minute, Accelerated)

	var seen []time.Time
	tc.AddListener(func(_ context.Context, now time.Time) error {
		seen = append(seen, now)
		return nil
	})

	if err := tc.Run(context.Background(), 10*time.Minute); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 10 || tc.Ticks() != 10 {
		t.Fatalf("ticks = %d (listener saw %d), want 10", tc.Ticks(), len(seen))
	}
	for i, now := range seen {
		if want := start.Add(time.Duration(i+1) * time.Minute); !now.Equal(want) {
			t.Fatalf("tick %d at %v, want %v", i, now, want)
		}
	}
	if got := tc.Now(); !got.Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("Now() = %v", got)
	}
}

func TestTimeControllerRealTimeStart(t *testing.T) {
	tc := NewTimeController(start, 5*time.Millisecond, RealTime)

	done := tc.Start(context.Background(), 15*time.Millisecond)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := tc.Now(), start.Add(15*time.Millisecond); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestTimeControllerListenerErrorStops(t *testing.T) {
	tc := NewTimeController(start, time.Second, Accelerated)
	boom := errors.New("boom")
	calls := 0
	tc.AddListener(func(context.Context, time.Time) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})

	if err := tc.Run(context.Background(), time.Hour); !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want boom", err)
	}
	if tc.Ticks() != 2 {
		t.Fatalf("completed ticks = %d, want 2", tc.Ticks())
	}
}

func TestTimeControllerCancel(t *testing.T) {
	tc := NewTimeController(start, time.Second, Accelerated)
	ctx, cancel := context.WithCancel(context.Background())
	tc.AddListener(func(_ context.Context, now time.Time) error {
		if now.Sub(start) >= 5*time.Second {
			cancel()
		}
		return nil
	})

	if err := tc.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if tc.Ticks() != 5 {
		t.Fatalf("ticks = %d, want 5", tc.Ticks())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"realtime", RealTime, true},
		{"Accelerated", Accelerated, true},
		{"", RealTime, true},
		{"warp", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseMode(%q) = (%v, %v)", tt.in, got, err)
		}
	}
}

func TestTimeControllerRejectsZeroTick(t *testing.T) {
	tc := NewTimeController(start, 0, Accelerated)
	if err := tc.Run(context.Background(), time.Second); err == nil {
		t.Fatal("expected error for zero tick")
	}
}
