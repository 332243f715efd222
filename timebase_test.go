package av

import (
	"testing"
	"time"
)

func TestTimestampAddDuration(t *testing.T) {
	ts := NewTimestamp(333, TimeBase90kHz)

	ts = ts.Add(100 * time.Millisecond)
	if got := ts.Ticks(); got != 9333 {
		t.Errorf("Ticks after +100ms = %d, want 9333", got)
	}

	ts = NewTimestamp(333, TimeBase90kHz).Sub(50 * time.Millisecond)
	if got := ts.Ticks(); got != -4167 {
		t.Errorf("Ticks after -50ms = %d, want -4167", got)
	}
}

func TestTimestampDiff(t *testing.T) {
	a := NewTimestamp(333, TimeBase90kHz)
	b := NewTimestamp(79, NewTimeBase(1, 50000))

	d, err := a.Diff(b)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if d != 2_122_222*time.Nanosecond {
		t.Errorf("Diff = %v, want 2.122222ms", d)
	}

	if _, err := b.Diff(a); err == nil {
		t.Error("Diff with a negative result did not fail")
	}
	if _, err := a.Diff(NullTimestamp(TimeBase90kHz)); err == nil {
		t.Error("Diff with a null operand did not fail")
	}
}

func TestTimestampComparison(t *testing.T) {
	tests := []struct {
		name string
		a, b Timestamp
		cmp  int
		ok   bool
	}{
		{"secs equal millis", TimestampFromSecs(1), TimestampFromMillis(1000), 0, true},
		{"sub-microsecond truncated", TimestampFromSecs(1), TimestampFromNanos(1_000_000_001), 0, true},
		{"one microsecond apart", TimestampFromSecs(1), TimestampFromMicros(1_000_001), -1, true},
		{"different bases", NewTimestamp(333, TimeBase90kHz), NewTimestamp(79, NewTimeBase(1, 50000)), 1, true},
		{"null vs valid", NullTimestamp(TimeBase90kHz), TimestampFromSecs(1), 0, false},
		{"valid vs null", TimestampFromSecs(1), NullTimestamp(TimeBase90kHz), 0, false},
		{"null vs null", NullTimestamp(TimeBase90kHz), NullTimestamp(TimeBaseMicroseconds), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, ok := tt.a.Compare(tt.b)
			if cmp != tt.cmp || ok != tt.ok {
				t.Errorf("Compare = (%d, %v), want (%d, %v)", cmp, ok, tt.cmp, tt.ok)
			}
		})
	}

	if !TimestampFromSecs(1).Equal(TimestampFromMillis(1000)) {
		t.Error("1s != 1000ms")
	}
	if TimestampFromSecs(1).Equal(TimestampFromMicros(1_000_001)) {
		t.Error("1s == 1000001us")
	}
	if !TimestampFromSecs(1).Before(TimestampFromMicros(1_000_001)) {
		t.Error("1s is not before 1000001us")
	}
	if NullTimestamp(TimeBase90kHz).Before(TimestampFromSecs(1)) {
		t.Error("null compared as before a valid timestamp")
	}
}

func TestTimestampNullPropagation(t *testing.T) {
	ts := NullTimestamp(TimeBase90kHz)

	if got := ts.Add(time.Second); !got.IsNull() {
		t.Errorf("null + 1s = %v, want null", got)
	}
	if got := ts.Sub(time.Second); !got.IsNull() {
		t.Errorf("null - 1s = %v, want null", got)
	}
	if got := ts.WithTimeBase(TimeBaseMicroseconds); !got.IsNull() {
		t.Errorf("null rescaled = %v, want null", got)
	} else if got.TimeBase() != TimeBaseMicroseconds {
		t.Errorf("TimeBase = %v, want %v", got.TimeBase(), TimeBaseMicroseconds)
	}
}

func TestRescaleRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		from, to TimeBase
		ticks    []int64
	}{
		{"millis to micros", NewTimeBase(1, 1000), TimeBaseMicroseconds, []int64{0, 1, 333, -333, 1 << 40}},
		{"90k to 48k", TimeBase90kHz, TimeBase48kHz, []int64{0, 90000, 180000, 4500000}},
		{"av to micros", NewTimeBase(1, 1_000_000), NewTimeBase(1, 1_000_000), []int64{1, 7, 1 << 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, ticks := range tt.ticks {
				back := tt.to.Rescale(tt.from.Rescale(ticks, tt.to), tt.from)
				diff := back - ticks
				if diff < -1 || diff > 1 {
					t.Errorf("round trip of %d via %v: got %d back", ticks, tt.to, back)
				}
			}
		})
	}
}

func TestRescaleRounding(t *testing.T) {
	// 79 ticks at 1/50000 is 142.2 ticks at 1/90000 and must round down.
	got := NewTimeBase(1, 50000).Rescale(79, TimeBase90kHz)
	if got != 142 {
		t.Errorf("Rescale = %d, want 142", got)
	}
	// Half ticks round away from zero.
	if got := NewTimeBase(1, 2).Rescale(1, NewTimeBase(1, 1)); got != 1 {
		t.Errorf("Rescale(1, 1/2 -> 1/1) = %d, want 1", got)
	}
	if got := NewTimeBase(1, 2).Rescale(-1, NewTimeBase(1, 1)); got != -1 {
		t.Errorf("Rescale(-1, 1/2 -> 1/1) = %d, want -1", got)
	}
}

func BenchmarkRescale(b *testing.B) {
	b.ReportAllocs()
	tb := TimeBase90kHz
	for i := 0; i < b.N; i++ {
		_ = tb.Rescale(int64(i), TimeBaseMicroseconds)
	}
}
