// Package clilog is a small leveled, colorized logger for cmd/rtreectl. It
// exists so that log output and the readline prompt never tear each other:
// every write refreshes the active readline.Instance immediately after.
package clilog

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

const (
	Debug = iota
	Info
	Warning
	Error
	Success
)

var labels = map[int]string{
	Debug:   "dbg",
	Info:    "inf",
	Warning: "war",
	Error:   "err",
	Success: "+++",
}

var (
	mu         sync.Mutex
	out        io.Writer = color.Output
	rl         *readline.Instance
	debugLevel bool
)

// SetReadline registers the active readline instance so log writes can
// refresh its prompt instead of garbling it. Pass nil to stop refreshing
// (e.g. once the REPL has exited).
func SetReadline(r *readline.Instance) {
	mu.Lock()
	defer mu.Unlock()
	rl = r
}

// SetOutput redirects where log lines are written; tests use this to
// capture output instead of the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// EnableDebug turns Debugf output on or off; it is off by default since
// per-operation tracing would swamp bulk-load output.
func EnableDebug(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	debugLevel = enable
}

func Debugf(format string, args ...interface{})   { write(Debug, format, args...) }
func Infof(format string, args ...interface{})    { write(Info, format, args...) }
func Warningf(format string, args ...interface{}) { write(Warning, format, args...) }
func Errorf(format string, args ...interface{})   { write(Error, format, args...) }
func Successf(format string, args ...interface{}) { write(Success, format, args...) }

func write(lvl int, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if lvl == Debug && !debugLevel {
		return
	}
	fmt.Fprint(out, formatMsg(lvl, format, args...))
	if rl != nil {
		rl.Refresh()
	}
}

func formatMsg(lvl int, format string, args ...interface{}) string {
	var sign, msg *color.Color
	switch lvl {
	case Debug:
		sign = color.New(color.FgBlack, color.BgHiBlack)
		msg = color.New(color.Reset, color.FgHiBlack)
	case Info:
		sign = color.New(color.FgGreen, color.BgBlack)
		msg = color.New(color.Reset)
	case Warning:
		sign = color.New(color.FgBlack, color.BgYellow)
		msg = color.New(color.Reset)
	case Error:
		sign = color.New(color.FgWhite, color.BgRed)
		msg = color.New(color.Reset, color.FgRed)
	case Success:
		sign = color.New(color.FgWhite, color.BgGreen)
		msg = color.New(color.Reset, color.FgGreen)
	}
	t := time.Now()
	ts := color.New(color.Reset)
	return "\r[" + ts.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second()) + "] [" +
		sign.Sprintf("%s", labels[lvl]) + "] " + msg.Sprintf(format, args...) + "\n"
}
