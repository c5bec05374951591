package engine

import (
	"time"
)

// TimeHandler turns a search's clock into a soft and a hard deadline. The soft
// limit is checked between iterations, the hard limit inside the tree.
type TimeHandler struct {
	start     time.Time
	softLimit time.Duration
	hardLimit time.Duration
	limited   bool
}

// PlanTime splits the clock into soft and hard budgets in milliseconds. Half of
// the clock is held back; both limits are non-decreasing in timeLeft and the
// hard limit never drops below the soft one.
func PlanTime(p *Params, timeLeft, increment int64) (soft, hard int64) {
	timeLeft = max(timeLeft, 0)
	increment = max(increment, 0)
	timeLeft -= timeLeft / 2

	base := timeLeft*int64(p[TimeBasePermille])/1000 + increment*int64(p[TimeIncPercent])/100
	maxTime := timeLeft * int64(p[TimeMaxPercent]) / 100
	hard = min(maxTime, base*int64(p[TimeHardPercent])/100)
	soft = min(maxTime, base*int64(p[TimeSoftPercent])/100)
	return soft, max(hard, soft)
}

func (th *TimeHandler) StartTime(now time.Time) {
	th.start = now
	th.limited = false
}

// SetClock plans the budgets for a clock search.
func (th *TimeHandler) SetClock(p *Params, timeLeft, increment int64) {
	soft, hard := PlanTime(p, timeLeft, increment)
	th.softLimit = time.Duration(soft) * time.Millisecond
	th.hardLimit = time.Duration(hard) * time.Millisecond
	th.limited = true
}

// SetMoveTime spends exactly ms on the move.
func (th *TimeHandler) SetMoveTime(ms int64) {
	th.softLimit = time.Duration(ms) * time.Millisecond
	th.hardLimit = th.softLimit
	th.limited = true
}

func (th *TimeHandler) Limited() bool { return th.limited }

func (th *TimeHandler) Elapsed() time.Duration { return time.Since(th.start) }

func (th *TimeHandler) SoftExceeded() bool {
	return th.limited && th.Elapsed() >= th.softLimit
}

func (th *TimeHandler) HardExceeded() bool {
	return th.limited && th.Elapsed() >= th.hardLimit
}

func (th *TimeHandler) Limits() (soft, hard time.Duration) {
	return th.softLimit, th.hardLimit
}
