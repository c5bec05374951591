package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dylhunn/dragontoothmg"
	eng "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
)

func main() {
	fen := flag.String("fen", eng.FENStartPos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	verify := flag.Bool("verify", false, "Cross-check every root move against a second move generator")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	cpuProf := flag.Bool("cpuprofile", false, "Write a CPU profile to the working directory")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *depth <= 0 {
		log.Fatal().Msg("-depth must be > 0")
	}

	board, err := eng.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Str("fen", *fen).Msg("ParseFEN")
	}

	if *verify {
		if mismatches := verifyDivide(board, *fen, *depth); mismatches > 0 {
			log.Error().Int("mismatches", mismatches).Msg("move generators disagree")
			os.Exit(1)
		}
		log.Info().Int("depth", *depth).Msg("move generators agree")
		return
	}

	if *divide {
		div := eng.PerftDivide(board, *depth)
		// Sort moves for stable output
		type kv struct {
			m eng.Move
			n uint64
		}
		arr := make([]kv, 0, len(div))
		var sum uint64
		for m, n := range div {
			arr = append(arr, kv{m, n})
			sum += n
		}
		sort.Slice(arr, func(i, j int) bool { return arr[i].m.String() < arr[j].m.String() })
		for _, x := range arr {
			fmt.Printf("%s: %d\n", x.m.String(), x.n)
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	if *cpuProf {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		totalNodes += eng.Perft(board, *depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, totalNodes, elapsed, nps)
}

// verifyDivide compares per-root-move node counts of both generators and prints
// every move they disagree on.
func verifyDivide(board *eng.Board, fen string, depth int) int {
	ours := map[string]uint64{}
	for m, n := range eng.PerftDivide(board, depth) {
		ours[m.String()] = n
	}

	ref := dragontoothmg.ParseFen(fen)
	theirs := map[string]uint64{}
	for _, m := range ref.GenerateLegalMoves() {
		unapply := ref.Apply(m)
		theirs[m.String()] = referencePerft(&ref, depth-1)
		unapply()
	}

	mismatches := 0
	for mv, n := range theirs {
		if ours[mv] != n {
			fmt.Printf("%s: goosemg %d dragontoothmg %d\n", mv, ours[mv], n)
			mismatches++
		}
	}
	for mv, n := range ours {
		if _, ok := theirs[mv]; !ok {
			fmt.Printf("%s: goosemg %d dragontoothmg missing\n", mv, n)
			mismatches++
		}
	}
	return mismatches
}

func referencePerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		n += referencePerft(b, depth-1)
		unapply()
	}
	return n
}
