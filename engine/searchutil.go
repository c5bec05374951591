package engine

import (
	"fmt"
	"strings"
	"time"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/samber/lo"
)

// Result is the outcome of a finished search.
type Result struct {
	BestMove gm.Move
	Score    int32
	Depth    int
	Nodes    uint64
	PV       []gm.Move
}

// Info is one progress report, emitted after every completed depth.
type Info struct {
	Depth    int
	SelDepth int
	Score    int32
	Nodes    uint64
	Time     time.Duration
	Hashfull int
	PV       []gm.Move
}

// NPS is nodes per second over the elapsed time.
func (i Info) NPS() uint64 {
	ms := uint64(i.Time.Milliseconds())
	if ms == 0 {
		return i.Nodes * 1000
	}
	return i.Nodes * 1000 / ms
}

// String formats the report as a UCI info line.
func (i Info) String() string {
	return fmt.Sprintf("info depth %d seldepth %d score %s nodes %d nps %d hashfull %d time %d pv %s",
		i.Depth, i.SelDepth, ScoreString(i.Score), i.Nodes, i.NPS(), i.Hashfull, i.Time.Milliseconds(), PVString(i.PV))
}

// PVString joins moves in long algebraic notation.
func PVString(pv []gm.Move) string {
	return strings.Join(lo.Map(pv, func(m gm.Move, _ int) string { return m.String() }), " ")
}

// ScoreString renders a score as "cp N" or "mate N", negative when being mated.
func ScoreString(score int32) string {
	if score >= MateBound {
		pliesToMate := max(MateValue-score, 0)
		return fmt.Sprintf("mate %d", (pliesToMate+1)/2)
	} else if score <= -MateBound {
		pliesToMate := max(MateValue+score, 0)
		return fmt.Sprintf("mate %d", -(pliesToMate+1)/2)
	}
	return fmt.Sprintf("cp %d", score)
}
