package engine

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Param indexes the tunable search constants.
type Param int

const (
	AspEntryDepth Param = iota
	AspDelta
	AspWiden // percent

	ProbCutBetaAdder
	ProbCutDepthSub
	ProbCutTTDepth

	IIRDepth
	IIRReduction

	RFPDepth
	RFPMargin

	WinningDepth
	WinningEvalSub
	WinningDepthMult
	WinningImprovingAdd
	WinningDepthDiv
	WinningDepthSub
	WinningCount

	NMPDepth
	NMPBase
	NMPDivisor

	RazorDepth
	RazorAlpha
	RazorDepthMult

	SEEPruneDepth
	SEECaptureMargin
	SEEQuietMargin

	SingularDepth
	SingularTTDepthSub
	SingularDoubleMargin

	LMRBase
	LMRDivisor
	LMRDepth

	QSFutilitySEE

	QuietGravityBase
	QuietDepthMult
	QuietBonusCap
	QuietDivisor
	QuietMalusBase
	QuietMalusMax
	QuietMalusDepthMult

	ContDivisor
	ContMalusBase
	ContMalusMax
	ContMalusDepthMult
	ContGravityBase
	ContDepthMult
	ContBonusCap

	ScaleKnight
	ScaleBishop
	ScaleRook
	ScaleQueen
	ScaleAdder
	ScaleDivisor

	CorrValueDiv
	CorrDepthAdder
	CorrDepthDiv
	CorrGravityDiv

	TimeBasePermille
	TimeIncPercent
	TimeMaxPercent
	TimeHardPercent
	TimeSoftPercent

	numParams
)

// ParamDef describes one tunable: its UCI name, default value and bounds.
type ParamDef struct {
	Name    string
	Default int32
	Min     int32
	Max     int32
}

var paramTable = [numParams]ParamDef{
	AspEntryDepth: {"aspEntryDepth", 7, 2, 20},
	AspDelta:      {"aspDelta", 26, 5, 200},
	AspWiden:      {"aspWiden", 134, 110, 300},

	ProbCutBetaAdder: {"probeCutBetaAdder", 460, 100, 1000},
	ProbCutDepthSub:  {"probeCuteSubtractor", 4, 1, 10},
	ProbCutTTDepth:   {"probeCutTTDepth", 4, 1, 10},

	IIRDepth:     {"iirDepth", 3, 1, 10},
	IIRReduction: {"iirReduction", 2, 1, 3},

	RFPDepth:  {"rfpDepth", 5, 1, 15},
	RFPMargin: {"rfpEvalSubtractor", 80, 20, 300},

	WinningDepth:        {"winningDepth", 6, 3, 15},
	WinningEvalSub:      {"winningEvalSubtractor", 97, 0, 400},
	WinningDepthMult:    {"winningDepthMultiplier", 24, 0, 100},
	WinningImprovingAdd: {"probeCutMarginAdder", 76, 0, 300},
	WinningDepthDiv:     {"winningDepthDivisor", 3, 1, 10},
	WinningDepthSub:     {"winningDepthSubtractor", 4, 1, 10},
	WinningCount:        {"winningCount", 2, 1, 10},

	NMPDepth:   {"nmpDepth", 3, 1, 10},
	NMPBase:    {"nmpDepthAdder", 2, 1, 6},
	NMPDivisor: {"nmpDepthDivisor", 3, 1, 10},

	RazorDepth:     {"razorDepth", 1, 0, 5},
	RazorAlpha:     {"razorAlpha", 247, 50, 800},
	RazorDepthMult: {"razorDepthMultiplier", 50, 0, 300},

	SEEPruneDepth:    {"pvsSSEDepth", 2, 0, 10},
	SEECaptureMargin: {"pvsSSECaptureCutoff", 92, 0, 300},
	SEEQuietMargin:   {"pvsSSENonCaptureCutoff", 18, 0, 200},

	SingularDepth:        {"singularDepth", 6, 4, 14},
	SingularTTDepthSub:   {"singularTTDepthSubtractor", 3, 1, 6},
	SingularDoubleMargin: {"singularDoubleMargin", 5, 0, 50},

	LMRBase:    {"lmrBase", 78, 0, 200},
	LMRDivisor: {"lmrDivisor", 240, 100, 500},
	LMRDepth:   {"lmrDepth", 2, 1, 6},

	QSFutilitySEE: {"fpCutoff", 2, 0, 200},

	QuietGravityBase:    {"quietHistoryGravityBase", 31, 0, 200},
	QuietDepthMult:      {"quietHistoryDepthMultiplier", 204, 50, 500},
	QuietBonusCap:       {"quietHistoryBonusCap", 1734, 500, 4000},
	QuietDivisor:        {"quietHistoryDivisor", 28711, 8000, 60000},
	QuietMalusBase:      {"quietHistoryMalusBase", 15, 0, 200},
	QuietMalusMax:       {"quietHistoryMalusMax", 1900, 500, 4000},
	QuietMalusDepthMult: {"quietHistoryMalusDepthMultiplier", 171, 50, 500},

	ContDivisor:        {"continuationHistoryDivisor", 28156, 8000, 60000},
	ContMalusBase:      {"continuationHistoryMalusBase", 25, 0, 200},
	ContMalusMax:       {"continuationHistoryMalusMax", 2172, 500, 4000},
	ContMalusDepthMult: {"continuationHistoryMalusDepthMultiplier", 185, 50, 500},
	ContGravityBase:    {"continuationHistoryGravityBase", 26, 0, 200},
	ContDepthMult:      {"continuationHistoryDepthMultiplier", 208, 50, 500},
	ContBonusCap:       {"continuationHistoryBonusCap", 1959, 500, 4000},

	ScaleKnight:  {"materialScaleKnight", 3, 0, 10},
	ScaleBishop:  {"materialScaleBishop", 3, 0, 10},
	ScaleRook:    {"materialScaleRook", 5, 0, 15},
	ScaleQueen:   {"materialScaleQueen", 18, 0, 40},
	ScaleAdder:   {"materialScaleAdder", 169, 50, 400},
	ScaleDivisor: {"materialScaleDivisor", 269, 100, 500},

	CorrValueDiv:   {"correctionValueDiv", 59, 10, 200},
	CorrDepthAdder: {"correctionDepthAdder", 157, 0, 500},
	CorrDepthDiv:   {"correctionDepthDiv", 909, 100, 2000},
	CorrGravityDiv: {"correctionGravityDiv", 664, 100, 2000},

	TimeBasePermille: {"timeBasePermille", 54, 10, 200},
	TimeIncPercent:   {"timeIncPercent", 85, 10, 100},
	TimeMaxPercent:   {"timeMaxPercent", 76, 20, 95},
	TimeHardPercent:  {"timeHardPercent", 304, 100, 600},
	TimeSoftPercent:  {"timeSoftPercent", 76, 20, 200},
}

// paramIndex maps lower-cased names to their Param.
var paramIndex = lo.Associate(lo.Range(int(numParams)), func(i int) (string, Param) {
	return strings.ToLower(paramTable[i].Name), Param(i)
})

// Params holds one value per tunable. The zero value is not usable, use DefaultParams.
type Params [numParams]int32

func DefaultParams() Params {
	var p Params
	for i, def := range paramTable {
		p[i] = def.Default
	}
	return p
}

// LookupParam finds a tunable by its case-insensitive name.
func LookupParam(name string) (Param, bool) {
	p, ok := paramIndex[strings.ToLower(name)]
	return p, ok
}

func (p Param) Def() ParamDef { return paramTable[p] }

// Set assigns a value by name, rejecting unknown names and out-of-range values.
func (p *Params) Set(name string, value int32) error {
	idx, ok := LookupParam(name)
	if !ok {
		return errors.Errorf("unknown parameter %q", name)
	}
	def := paramTable[idx]
	if value < def.Min || value > def.Max {
		return errors.Errorf("parameter %s value %d outside [%d, %d]", def.Name, value, def.Min, def.Max)
	}
	p[idx] = value
	return nil
}

// ParamDefs returns the full table in declaration order.
func ParamDefs() []ParamDef {
	return paramTable[:]
}

// UCIOptions renders the tunables as UCI spin options.
func UCIOptions() []string {
	return lo.Map(paramTable[:], func(s ParamDef, _ int) string {
		return fmt.Sprintf("option name %s type spin default %d min %d max %d", s.Name, s.Default, s.Min, s.Max)
	})
}
