package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"goose-nnue/engine"
	"goose-nnue/engine/nnue"
)

func main() {
	depth := flag.Int("depth", engine.DefaultBenchDepth, "search depth per position")
	evalFile := flag.String("eval", "", "network file (random network when empty)")
	hash := flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	threads := flag.Int("threads", 1, "search threads")
	cpuProf := flag.Bool("cpuprofile", false, "write a CPU profile to the working directory")
	memProf := flag.Bool("memprofile", false, "write a heap profile to the working directory")
	logLevel := flag.String("loglevel", "warn", "diagnostic log level (stderr)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	switch {
	case *cpuProf:
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case *memProf:
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	var net *nnue.Network
	if *evalFile != "" {
		if net, err = nnue.LoadNetwork(*evalFile); err != nil {
			log.Fatal().Err(err).Msg("load network")
		}
	}

	e := engine.New(engine.Config{HashMB: *hash, Threads: *threads, Logger: log, Network: net})
	res, err := engine.Bench(e, *depth)
	if err != nil {
		log.Fatal().Err(err).Msg("bench failed")
	}
	fmt.Printf("positions %d depth %d nodes %d time %dms nps %d\n",
		len(engine.BenchPositions), *depth, res.Nodes, res.Elapsed.Milliseconds(), res.NPS())
}
