package profile

import "time"

// Clock supplies marker timestamps in unix milliseconds
type Clock func() int64

// SystemClock reads the wall clock
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// FixedClock returns a clock that replays the given timestamps in order.
// Once exhausted it keeps returning the last one.
func FixedClock(times ...int64) Clock {
	i := 0
	return func() int64 {
		if len(times) == 0 {
			return 0
		}
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}
