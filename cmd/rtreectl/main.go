// Command rtreectl is the ad-hoc test harness spec.md §6 describes but
// declares out of scope for the core itself: an interactive REPL over the
// fixed command set `insert`, `remove`, `search`, `quit`, plus a -file flag
// that bulk-loads whitespace-separated "lat lon" pairs. It is a thin
// external collaborator over the two core packages (rtree, hrtree) and
// never reaches into either tree's internals.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lilhast1/rtree/internal/clilog"
)

func main() {
	os.Exit(run())
}

func run() int {
	hilbertVariant := flag.Bool("hilbert", false, "use the Hilbert-curve-ordered balancer instead of Guttman")
	m := flag.Int("m", 2, "minimum fill per node")
	M := flag.Int("M", 4, "maximum fill per node")
	dim := flag.Int("dim", 2, "dimensionality (Hilbert variant only)")
	bits := flag.Int("bits", 20, "Hilbert curve bits per dimension (Hilbert variant only)")
	file := flag.String("file", "", "bulk-load whitespace-separated lat/lon pairs from this file before starting the REPL")
	debug := flag.Bool("debug", false, "enable debug-level log output")
	flag.Parse()

	clilog.EnableDebug(*debug)

	var eng engine
	var err error
	if *hilbertVariant {
		eng, err = newHilbertEngine(*m, *M, *dim, *bits)
	} else {
		eng, err = newGuttmanEngine(*m, *M)
	}
	if err != nil {
		clilog.Errorf("%v\n", err)
		return 1
	}

	if *file != "" {
		if err := bulkLoad(eng, *file); err != nil {
			clilog.Errorf("bulk load: %v\n", err)
			return 1
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "rtree> ",
		AutoComplete: completer,
	})
	if err != nil {
		clilog.Errorf("%v\n", err)
		return 1
	}
	defer rl.Close()
	clilog.SetReadline(rl)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return 0
		}
		if err != nil {
			clilog.Errorf("%v\n", err)
			return 1
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "insert":
			if err := dispatchInsert(eng, fields[1:]); err != nil {
				clilog.Errorf("insert: %v\n", err)
			} else {
				clilog.Successf("inserted\n")
			}
		case "remove":
			if err := dispatchRemove(eng, fields[1:]); err != nil {
				clilog.Errorf("remove: %v\n", err)
			} else {
				clilog.Successf("removed\n")
			}
		case "search":
			results, err := dispatchSearch(eng, fields[1:])
			if err != nil {
				clilog.Errorf("search: %v\n", err)
			} else {
				clilog.Infof("%s\n", formatResults(results))
			}
		case "quit", "exit":
			return 0
		default:
			clilog.Warningf("unknown command %q (expected insert, remove, search, quit)\n", fields[0])
		}
	}
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("insert"),
	readline.PcItem("remove"),
	readline.PcItem("search"),
	readline.PcItem("quit"),
)

func dispatchInsert(eng engine, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: insert <id> <lat> <lon>")
	}
	lat, lon, err := parseLatLon(args[1], args[2])
	if err != nil {
		return err
	}
	return eng.insert(args[0], lat, lon)
}

func dispatchRemove(eng engine, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: remove <lat> <lon>")
	}
	lat, lon, err := parseLatLon(args[0], args[1])
	if err != nil {
		return err
	}
	eng.remove(lat, lon)
	return nil
}

func dispatchSearch(eng engine, args []string) ([]interface{}, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("usage: search <lat1> <lon1> <lat2> <lon2>")
	}
	lat1, lon1, err := parseLatLon(args[0], args[1])
	if err != nil {
		return nil, err
	}
	lat2, lon2, err := parseLatLon(args[2], args[3])
	if err != nil {
		return nil, err
	}
	return eng.search(lat1, lon1, lat2, lon2), nil
}

func parseLatLon(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", lonStr, err)
	}
	return lat, lon, nil
}

// bulkLoad reads whitespace-separated "lat lon" pairs, one point per line,
// and inserts each with its 1-based line number as the payload handle.
func bulkLoad(eng engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	loaded := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			clilog.Warningf("line %d: expected \"lat lon\", got %q\n", line, scanner.Text())
			continue
		}
		lat, lon, err := parseLatLon(fields[0], fields[1])
		if err != nil {
			clilog.Warningf("line %d: %v\n", line, err)
			continue
		}
		if err := eng.insert(strconv.Itoa(line), lat, lon); err != nil {
			clilog.Warningf("line %d: %v\n", line, err)
			continue
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	clilog.Successf("loaded %d point(s) from %s\n", loaded, path)
	return nil
}
