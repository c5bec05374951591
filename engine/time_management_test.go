package engine

import (
	"testing"
	"time"
)

func TestPlanTimeMonotonic(t *testing.T) {
	p := DefaultParams()
	var prevSoft, prevHard int64
	for left := int64(0); left <= 600_000; left += 1_000 {
		soft, hard := PlanTime(&p, left, 2_000)
		if hard < soft {
			t.Fatalf("timeLeft %d: hard %d below soft %d", left, hard, soft)
		}
		if soft < prevSoft || hard < prevHard {
			t.Fatalf("timeLeft %d: limits shrank from (%d, %d) to (%d, %d)", left, prevSoft, prevHard, soft, hard)
		}
		if hard > left/2 {
			t.Fatalf("timeLeft %d: hard limit %d eats into the reserve", left, hard)
		}
		prevSoft, prevHard = soft, hard
	}
}

func TestPlanTimeDefaults(t *testing.T) {
	p := DefaultParams()
	soft, hard := PlanTime(&p, 60_000, 1_000)
	// tl = 30000, base = 1620 + 850
	if soft != 2470*76/100 || hard != 2470*304/100 {
		t.Fatalf("60s+1s: got soft %d hard %d", soft, hard)
	}
}

func TestTimeHandlerMoveTime(t *testing.T) {
	var th TimeHandler
	th.StartTime(time.Now())
	if th.Limited() || th.SoftExceeded() || th.HardExceeded() {
		t.Fatalf("an unlimited search never runs out of time")
	}
	th.SetMoveTime(250)
	soft, hard := th.Limits()
	if soft != 250*time.Millisecond || hard != soft {
		t.Fatalf("movetime 250: got soft %v hard %v", soft, hard)
	}

	th.StartTime(time.Now().Add(-time.Second))
	th.SetMoveTime(10)
	if !th.SoftExceeded() || !th.HardExceeded() {
		t.Fatalf("deadlines should be past after a second")
	}
}
