package engine

import "fmt"

// CutStatistics collects counts for each pruning/cutoff mechanism. Each worker
// owns one; the session sums them after a search.
type CutStatistics struct {
	TTCutoffs         uint64
	NullMoveCutoffs   uint64
	StaticNullCutoffs uint64
	RazoringCutoffs   uint64
	ProbCutCutoffs    uint64
	MultiCuts         uint64
	SEEPrunes         uint64
	BetaCutoffs       uint64
	QStandPatCutoffs  uint64
	QBetaCutoffs      uint64
}

func (c *CutStatistics) add(o *CutStatistics) {
	c.TTCutoffs += o.TTCutoffs
	c.NullMoveCutoffs += o.NullMoveCutoffs
	c.StaticNullCutoffs += o.StaticNullCutoffs
	c.RazoringCutoffs += o.RazoringCutoffs
	c.ProbCutCutoffs += o.ProbCutCutoffs
	c.MultiCuts += o.MultiCuts
	c.SEEPrunes += o.SEEPrunes
	c.BetaCutoffs += o.BetaCutoffs
	c.QStandPatCutoffs += o.QStandPatCutoffs
	c.QBetaCutoffs += o.QBetaCutoffs
}

// Lines renders the counters as UCI "info string" lines.
func (c CutStatistics) Lines() []string {
	return []string{
		"info string Cut statistics:",
		fmt.Sprintf("info string   TT cutoffs: %d", c.TTCutoffs),
		fmt.Sprintf("info string   Null-move cutoffs: %d", c.NullMoveCutoffs),
		fmt.Sprintf("info string   Static null cutoffs: %d", c.StaticNullCutoffs),
		fmt.Sprintf("info string   Razoring cutoffs: %d", c.RazoringCutoffs),
		fmt.Sprintf("info string   ProbCut cutoffs: %d", c.ProbCutCutoffs),
		fmt.Sprintf("info string   Multi-cuts: %d", c.MultiCuts),
		fmt.Sprintf("info string   SEE prunes: %d", c.SEEPrunes),
		fmt.Sprintf("info string   Beta cutoffs: %d", c.BetaCutoffs),
		fmt.Sprintf("info string   QStandPat cutoffs: %d", c.QStandPatCutoffs),
		fmt.Sprintf("info string   QBeta cutoffs: %d", c.QBetaCutoffs),
	}
}
