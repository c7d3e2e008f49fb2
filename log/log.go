// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides leveled, contextual key/value logging on top of the
// standard library's log/slog (see DESIGN.md: no pack file implements this
// package, only call sites that import it externally).
package log

import (
	"context"
	"log/slog"
	"os"
)

var root = New()

// Logger is a contextual logger that carries a fixed set of key/value pairs.
type Logger struct {
	inner *slog.Logger
}

// New returns a fresh logger writing text to stderr at info level, carrying
// ctx as additional context when any is supplied.
func New(ctx ...any) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := slog.New(h)
	if len(ctx) > 0 {
		l = l.With(ctx...)
	}
	return Logger{inner: l}
}

// With returns a new logger with additional persistent context.
func (l Logger) With(ctx ...any) Logger {
	return Logger{inner: l.inner.With(ctx...)}
}

func (l Logger) Trace(msg string, ctx ...any) { l.inner.Log(context.Background(), slog.LevelDebug-4, msg, ctx...) }
func (l Logger) Debug(msg string, ctx ...any) { l.inner.Debug(msg, ctx...) }
func (l Logger) Info(msg string, ctx ...any)  { l.inner.Info(msg, ctx...) }
func (l Logger) Warn(msg string, ctx ...any)  { l.inner.Warn(msg, ctx...) }
func (l Logger) Error(msg string, ctx ...any) { l.inner.Error(msg, ctx...) }

// Crit logs at error level and terminates the process, for unrecoverable
// startup failures (cmd/geth-core's fatal-on-init call sites).
func (l Logger) Crit(msg string, ctx ...any) {
	l.inner.Error(msg, ctx...)
	os.Exit(1)
}

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
