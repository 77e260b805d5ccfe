// Package log is a thin layer over logrus where every line belongs to a
// module. Warnings and errors are always emitted, lower levels only for
// modules enabled with EnableDebugModules.
package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors logrus levels, from the most to the least severe.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled bool

// Disable turns off all logging, warnings and errors included.
func Disable() { disabled = true }

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) { logrus.SetOutput(w) }

func setBackendLevel(lvl Level) { logrus.SetLevel(logrus.Level(lvl)) }

// Context adds fields to every log line, like the current frame number.
type Context interface {
	AddLogContext(*EntryZ)
}

var contexts []Context

// AddContext registers c, it returns a function removing it.
func AddContext(c Context) (remove func()) {
	contexts = append(contexts, c)
	return func() {
		for i := range contexts {
			if contexts[i] == c {
				contexts = append(contexts[:i], contexts[i+1:]...)
				return
			}
		}
	}
}

func (mod Module) Debugf(format string, args ...any) { mod.printf(DebugLevel, format, args) }
func (mod Module) Infof(format string, args ...any)  { mod.printf(InfoLevel, format, args) }
func (mod Module) Warnf(format string, args ...any)  { mod.printf(WarnLevel, format, args) }
func (mod Module) Errorf(format string, args ...any) { mod.printf(ErrorLevel, format, args) }
func (mod Module) Fatalf(format string, args ...any) { mod.printf(FatalLevel, format, args) }

func (mod Module) printf(lvl Level, format string, args []any) {
	if !mod.Enabled(lvl) {
		return
	}
	z := mod.entry(lvl, "")
	z.format, z.args = format, args
	z.End()
}
