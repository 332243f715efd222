package av

import (
	"fmt"
	"math/bits"
	"time"
)

// NoPtsValue is the sentinel tick value meaning "no timestamp available".
// It matches the native AV_NOPTS_VALUE.
const NoPtsValue = int64(-1) << 63

// TimeBase is a rational number of seconds per tick. A time base of
// 1/90000 means one tick is 1/90000 of a second.
type TimeBase struct {
	Num int32
	Den int32
}

// Common time bases.
var (
	TimeBaseMicroseconds = TimeBase{Num: 1, Den: 1_000_000}
	TimeBase90kHz        = TimeBase{Num: 1, Den: 90_000}
	TimeBase48kHz        = TimeBase{Num: 1, Den: 48_000}
)

// NewTimeBase creates a time base from a numerator and a denominator.
func NewTimeBase(num, den int32) TimeBase {
	return TimeBase{Num: num, Den: den}
}

func (tb TimeBase) String() string {
	return fmt.Sprintf("%d/%d", tb.Num, tb.Den)
}

// Rescale converts a tick count from this time base into another one.
// Null ticks stay null.
func (tb TimeBase) Rescale(ticks int64, target TimeBase) int64 {
	if ticks == NoPtsValue {
		return NoPtsValue
	}
	b := int64(tb.Num) * int64(target.Den)
	c := int64(tb.Den) * int64(target.Num)
	return mulDivRound(ticks, b, c)
}

// mulDivRound computes a*b/c with a 128 bit intermediate product,
// rounding to the nearest integer with halves away from zero. The
// result saturates on overflow.
func mulDivRound(a, b, c int64) int64 {
	neg := false
	if a < 0 {
		a, neg = -a, !neg
	}
	if b < 0 {
		b, neg = -b, !neg
	}
	if c < 0 {
		c, neg = -c, !neg
	}
	if c == 0 {
		return NoPtsValue
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	lo, carry := bits.Add64(lo, uint64(c)/2, 0)
	hi += carry
	if hi >= uint64(c) {
		if neg {
			return NoPtsValue
		}
		return 1<<63 - 1
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if neg {
		return -int64(q)
	}
	return int64(q)
}

// Timestamp is a tick count tagged with a time base. The zero value is
// a null timestamp in the 0/0 time base; use NewTimestamp or one of the
// From* constructors instead.
type Timestamp struct {
	ts int64
	tb TimeBase
}

// NewTimestamp creates a timestamp from a tick count and a time base.
func NewTimestamp(ts int64, tb TimeBase) Timestamp {
	return Timestamp{ts: ts, tb: tb}
}

// NullTimestamp creates a null timestamp in a given time base.
func NullTimestamp(tb TimeBase) Timestamp {
	return Timestamp{ts: NoPtsValue, tb: tb}
}

// TimestampFromSecs creates a timestamp in the 1/1 time base.
func TimestampFromSecs(secs int64) Timestamp {
	return Timestamp{ts: secs, tb: TimeBase{1, 1}}
}

// TimestampFromMillis creates a timestamp in the 1/1000 time base.
func TimestampFromMillis(millis int64) Timestamp {
	return Timestamp{ts: millis, tb: TimeBase{1, 1_000}}
}

// TimestampFromMicros creates a timestamp in the microsecond time base.
func TimestampFromMicros(micros int64) Timestamp {
	return Timestamp{ts: micros, tb: TimeBaseMicroseconds}
}

// TimestampFromNanos creates a timestamp in the 1/1000000000 time base.
func TimestampFromNanos(nanos int64) Timestamp {
	return Timestamp{ts: nanos, tb: TimeBase{1, 1_000_000_000}}
}

// Ticks returns the raw tick count.
func (t Timestamp) Ticks() int64 {
	return t.ts
}

// TimeBase returns the time base the tick count is expressed in.
func (t Timestamp) TimeBase() TimeBase {
	return t.tb
}

// IsNull reports whether the timestamp is the null sentinel.
func (t Timestamp) IsNull() bool {
	return t.ts == NoPtsValue
}

// WithTimeBase rescales the timestamp into a given time base.
func (t Timestamp) WithTimeBase(tb TimeBase) Timestamp {
	return Timestamp{ts: t.tb.Rescale(t.ts, tb), tb: tb}
}

// WithRawTimestamp replaces the tick count, keeping the time base.
func (t Timestamp) WithRawTimestamp(ts int64) Timestamp {
	return Timestamp{ts: ts, tb: t.tb}
}

// Add adds a wall clock duration. The whole second and the subsecond
// parts are rescaled separately so that time bases which do not divide
// a second evenly lose no precision. Null timestamps stay null.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return t.addDuration(d, 1)
}

// Sub subtracts a wall clock duration. Null timestamps stay null.
func (t Timestamp) Sub(d time.Duration) Timestamp {
	return t.addDuration(d, -1)
}

func (t Timestamp) addDuration(d time.Duration, sign int64) Timestamp {
	if t.IsNull() {
		return t
	}
	secs := TimestampFromSecs(int64(d / time.Second)).WithTimeBase(t.tb)
	nanos := TimestampFromNanos(int64(d % time.Second)).WithTimeBase(t.tb)
	return Timestamp{ts: t.ts + sign*(secs.ts+nanos.ts), tb: t.tb}
}

// Diff returns the duration elapsed between another timestamp and this
// one. The other timestamp is rescaled into this one's time base first.
// It fails when either side is null or when the result would be
// negative.
func (t Timestamp) Diff(other Timestamp) (time.Duration, error) {
	if t.IsNull() || other.IsNull() {
		return 0, fmt.Errorf("timestamp difference of a null timestamp")
	}
	delta := t.ts - other.WithTimeBase(t.tb).ts
	if delta < 0 {
		return 0, fmt.Errorf("timestamp difference out of range")
	}
	num := int64(t.tb.Num)
	den := int64(t.tb.Den)
	secs := delta * num / den
	rem := delta*num - secs*den
	nanos := rem * int64(time.Second) / den
	return time.Duration(secs)*time.Second + time.Duration(nanos), nil
}

// Compare orders two timestamps at microsecond granularity. The boolean
// is false when exactly one side is null, in which case there is no
// defined relation.
func (t Timestamp) Compare(other Timestamp) (int, bool) {
	if t.IsNull() || other.IsNull() {
		if t.IsNull() && other.IsNull() {
			return 0, true
		}
		return 0, false
	}
	a := t.WithTimeBase(TimeBaseMicroseconds).ts
	b := other.WithTimeBase(TimeBaseMicroseconds).ts
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	default:
		return 0, true
	}
}

// Equal reports whether two timestamps denote the same instant at
// microsecond granularity. Two null timestamps are equal; a null and a
// valid timestamp are not.
func (t Timestamp) Equal(other Timestamp) bool {
	c, ok := t.Compare(other)
	return ok && c == 0
}

// Before reports whether t is strictly earlier than other. It is false
// whenever the two are not comparable.
func (t Timestamp) Before(other Timestamp) bool {
	c, ok := t.Compare(other)
	return ok && c < 0
}

// After reports whether t is strictly later than other. It is false
// whenever the two are not comparable.
func (t Timestamp) After(other Timestamp) bool {
	c, ok := t.Compare(other)
	return ok && c > 0
}

func (t Timestamp) String() string {
	if t.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d@%s", t.ts, t.tb)
}
