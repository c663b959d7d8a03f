package scheduler

import "time"

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// replaced in tests
var newTicker = func(d time.Duration) ticker {
	return timeTicker{time.NewTicker(max(d, time.Nanosecond))}
}
