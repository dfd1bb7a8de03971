// Package log is a small leveled, colorized logger. Each level is a
// package-level value with F (printf), Ln (space-joined), C (lazy,
// closure-evaluated — only called if the level is enabled) and S (spew
// structure dump) forms.
package log

import (
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

// Level is a logging verbosity level, ordered from least to most verbose.
type Level int

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

var names = map[Level]string{
	Fatal: "fatal",
	Error: "error",
	Warn:  "warn",
	Info:  "info",
	Debug: "debug",
	Trace: "trace",
}

// GetLevel converts a level name (case sensitive to the lowercase names
// above) into a Level, defaulting to Info for anything unrecognized.
func GetLevel(s string) Level {
	for l, n := range names {
		if n == s {
			return l
		}
	}
	return Info
}

var current = Info

// SetLevel changes the process-wide log level by name.
func SetLevel(s string) { current = GetLevel(s) }

type logger struct {
	level Level
	color *color.Color
}

func (l *logger) enabled() bool { return l.level <= current }

// F writes a printf-style formatted line at this logger's level.
func (l *logger) F(format string, args ...any) {
	if !l.enabled() {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Ln writes a space-joined line at this logger's level.
func (l *logger) Ln(args ...any) {
	if !l.enabled() {
		return
	}
	l.write(fmt.Sprintln(args...))
}

// C writes a line produced by fn, but only calls fn if the level is
// enabled, so callers can defer expensive formatting:
// log.T.C(func() string { return spew.Sdump(bigThing) })
func (l *logger) C(fn func() string) {
	if !l.enabled() {
		return
	}
	l.write(fn())
}

// S dumps a value using go-spew, for structure inspection at this level.
func (l *logger) S(a any) {
	if !l.enabled() {
		return
	}
	l.write(spew.Sdump(a))
}

func (l *logger) write(s string) {
	ts := time.Now().Format("15:04:05.000")
	prefix := l.color.Sprintf("[%s]", names[l.level])
	fmt.Fprintf(os.Stderr, "%s %s %s\n", ts, prefix, s)
}

var (
	F = &logger{Fatal, color.New(color.FgRed, color.Bold)}
	E = &logger{Error, color.New(color.FgRed)}
	W = &logger{Warn, color.New(color.FgYellow)}
	I = &logger{Info, color.New(color.FgGreen)}
	D = &logger{Debug, color.New(color.FgCyan)}
	T = &logger{Trace, color.New(color.FgMagenta)}
)
