package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"goose-nnue/engine"
	"goose-nnue/engine/nnue"
)

const engineName = "GooseEngine NNUE"

const benchNetworkSeed = 1

func main() {
	evalFile := flag.String("eval", "", "network file (raw or zstd)")
	logLevel := flag.String("loglevel", "info", "diagnostic log level (stderr)")
	tune := flag.Bool("tune", false, "list tunable search parameters as UCI options")
	hash := flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	threads := flag.Int("threads", 1, "search threads")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	net, err := startupNetwork(*evalFile, flag.Arg(0) == "bench")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot start without a valid network")
	}
	if *evalFile != "" {
		log.Info().Str("file", *evalFile).Msg("network loaded")
	}

	e := engine.New(engine.Config{HashMB: *hash, Threads: *threads, Logger: log, Network: net})

	if flag.Arg(0) == "bench" {
		depth := engine.DefaultBenchDepth
		if d, err := strconv.Atoi(flag.Arg(1)); err == nil && d > 0 {
			depth = d
		}
		res, err := engine.Bench(e, depth)
		if err != nil {
			log.Fatal().Err(err).Msg("bench failed")
		}
		fmt.Printf("%d nodes %d nps\n", res.Nodes, res.NPS())
		return
	}

	u := newUCI(e, os.Stdout, log, *tune)
	u.loop(os.Stdin)
}

// startupNetwork loads the network given on the command line. Only bench may
// run without one; it then uses a fixed random network so node counts stay
// comparable.
func startupNetwork(path string, bench bool) (*nnue.Network, error) {
	if path != "" {
		return nnue.LoadNetwork(path)
	}
	if bench {
		return nnue.NewRandomNetwork(benchNetworkSeed), nil
	}
	return nil, errors.New("no network given, pass one with -eval")
}

// uci drives one engine from protocol commands. Output is serialized because
// the search goroutine prints info and bestmove lines.
type uci struct {
	eng  *engine.Engine
	log  zerolog.Logger
	tune bool

	mu  sync.Mutex
	out io.Writer

	searching  bool
	printStats atomic.Bool
}

func newUCI(e *engine.Engine, out io.Writer, log zerolog.Logger, tune bool) *uci {
	u := &uci{eng: e, out: out, log: log, tune: tune}
	e.OnInfo = func(info engine.Info) { u.println(info.String()) }
	return u
}

func (u *uci) println(a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.out, a...)
}

func (u *uci) loop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !u.handle(scanner.Text()) {
			break
		}
	}
	u.stopSearch()
}

// handle runs one command line and reports whether the loop should continue.
func (u *uci) handle(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 { // ignore blank lines
		return true
	}
	switch strings.ToLower(tokens[0]) {
	case "uci":
		u.println("id name", engineName)
		u.println("id author Goose")
		u.println(fmt.Sprintf("option name Hash type spin default %d min 1 max %d", engine.DefaultHashMB, engine.MaxHashMB))
		u.println(fmt.Sprintf("option name Threads type spin default 1 min 1 max %d", engine.MaxThreads))
		u.println("option name EvalFile type string default <empty>")
		u.println("option name Clear Hash type button")
		if u.tune {
			for _, opt := range engine.UCIOptions() {
				u.println(opt)
			}
		}
		u.println("uciok")
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.stopSearch()
		u.eng.NewGame()
		if err := u.eng.SetPosition(engine.StartFEN, nil); err != nil {
			u.println("info string", err)
		}
	case "position":
		u.stopSearch()
		fen, moves, err := parsePosition(tokens[1:])
		if err == nil {
			err = u.eng.SetPosition(fen, moves)
		}
		if err != nil {
			u.println("info string", err)
		}
	case "go":
		u.stopSearch()
		limits, warnings := parseGo(tokens[1:])
		for _, w := range warnings {
			u.println("info string", w)
		}
		u.searching = true
		u.eng.Go(limits, func(r engine.Result) {
			if u.printStats.Load() {
				for _, l := range u.eng.CutStats().Lines() {
					u.println(l)
				}
			}
			u.println("bestmove", moveString(r.BestMove))
		})
	case "stop":
		u.stopSearch()
	case "setoption":
		u.stopSearch()
		if err := u.setOption(tokens[1:]); err != nil {
			u.println("info string", err)
		}
	case "eval":
		u.stopSearch()
		u.println(fmt.Sprintf("info string eval %s (side to move)", engine.ScoreString(u.eng.Evaluate())))
	case "d":
		u.stopSearch()
		u.println(boardString(u.eng.Position()))
	case "cutstats":
		u.printStats.Store(!u.printStats.Load())
	case "quit":
		return false
	default:
		u.println("info string Unknown command:", line)
	}
	return true
}

// boardString draws b rank by rank from White's side, followed by its FEN and
// key.
func boardString(b *gm.Board) string {
	fen := b.ToFEN()
	var sb strings.Builder
	sb.WriteString(" +---+---+---+---+---+---+---+---+\n")
	for i, rank := range strings.Split(strings.Fields(fen)[0], "/") {
		sb.WriteString(" |")
		for _, c := range rank {
			if c >= '1' && c <= '8' {
				sb.WriteString(strings.Repeat("   |", int(c-'0')))
				continue
			}
			sb.WriteString(" " + string(c) + " |")
		}
		fmt.Fprintf(&sb, " %d\n +---+---+---+---+---+---+---+---+\n", 8-i)
	}
	sb.WriteString("   a   b   c   d   e   f   g   h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X", fen, b.Hash())
	return sb.String()
}

// moveString is the UCI form of m; the null move is "0000".
func moveString(m gm.Move) string {
	if m == 0 {
		return "0000"
	}
	return m.String()
}

func (u *uci) stopSearch() {
	if !u.searching {
		return
	}
	u.eng.Stop()
	u.eng.Wait()
	u.searching = false
}

// parsePosition splits "startpos|fen <fen> [moves ...]" into its parts.
func parsePosition(args []string) (fen string, moves []string, err error) {
	if len(args) == 0 {
		return "", nil, errors.New("malformed position command")
	}
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		fen = engine.StartFEN
	case "fen":
		i := 0
		for i < len(rest) && strings.ToLower(rest[i]) != "moves" {
			i++
		}
		if i == 0 {
			return "", nil, errors.New("invalid fen position")
		}
		fen = strings.Join(rest[:i], " ")
		rest = rest[i:]
	default:
		return "", nil, errors.Errorf("invalid position subcommand %q", args[0])
	}
	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		moves = rest[1:]
	}
	return fen, moves, nil
}

// parseGo reads the go arguments. Malformed values are skipped with a warning.
func parseGo(args []string) (engine.Limits, []string) {
	var l engine.Limits
	var warnings []string
	for i := 0; i < len(args); i++ {
		key := strings.ToLower(args[i])
		if key == "infinite" {
			l.Infinite = true
			continue
		}

		var dst *int64
		switch key {
		case "wtime":
			dst = &l.WTime
			l.HasClock = true
		case "btime":
			dst = &l.BTime
			l.HasClock = true
		case "winc":
			dst = &l.WInc
		case "binc":
			dst = &l.BInc
		case "movetime":
			dst = &l.MoveTime
		case "depth", "nodes", "movestogo":
		default:
			warnings = append(warnings, "Unknown go subcommand "+key)
			continue
		}

		if i+1 >= len(args) {
			warnings = append(warnings, "Malformed go command option "+key)
			continue
		}
		i++
		v, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Malformed go command option; could not convert %s", key))
			continue
		}
		switch key {
		case "depth":
			l.Depth = int(v)
		case "nodes":
			l.Nodes = uint64(max(v, 0))
		case "movestogo":
		default:
			*dst = v
		}
	}
	return l, warnings
}

// setOption handles "name <id...> [value <x>]".
func (u *uci) setOption(args []string) error {
	var name, value []string
	target := &name
	for i, t := range args {
		switch {
		case i == 0 && strings.EqualFold(t, "name"):
		case strings.EqualFold(t, "value") && target == &name:
			target = &value
		default:
			*target = append(*target, t)
		}
	}
	id := strings.Join(name, " ")
	val := strings.Join(value, " ")

	switch strings.ToLower(id) {
	case "hash":
		mb, err := strconv.Atoi(val)
		if err != nil || mb < 1 || mb > engine.MaxHashMB {
			return errors.Errorf("invalid Hash value %q", val)
		}
		u.eng.SetHashSize(mb)
	case "threads":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > engine.MaxThreads {
			return errors.Errorf("invalid Threads value %q", val)
		}
		u.eng.SetThreads(n)
	case "evalfile":
		if val == "" || val == "<empty>" {
			return nil
		}
		net, err := nnue.LoadNetwork(val)
		if err != nil {
			return err
		}
		u.eng.SetNetwork(net)
		u.log.Info().Str("file", val).Msg("network loaded")
	case "clear hash":
		u.eng.ClearHash()
	default:
		v, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "option %s", id)
		}
		return u.eng.SetOption(id, int32(v))
	}
	return nil
}
