// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lumenchain library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Package log is a small leveled, structured logger in the style the rest
// of this corpus uses (log.NewModuleLogger(log.<Module>), then
// logger.Info("msg", "key", value, ...)). It intentionally does not try to
// be a general-purpose logging framework: one handler, one output, colored
// when attached to a terminal.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Module names, one per package that logs.
type Module string

const (
	ModuleCommon    Module = "COMMON"
	ModuleChain     Module = "CHAIN"
	ModuleGossip    Module = "GOSSIP"
	ModuleMiner     Module = "MINER"
	ModuleAPI       Module = "API"
	ModuleNode      Module = "NODE"
	ModuleTxGen     Module = "TXGEN"
	ModuleNetwork   Module = "NETWORK"
	ModuleMain      Module = "MAIN"
)

type Level int

const (
	LvlError Level = iota
	LvlWarn
	LvlInfo
	LvlDebug
)

func (l Level) String() string {
	switch l {
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	default:
		return "?????"
	}
}

var (
	mu         sync.Mutex
	out        io.Writer = colorable.NewColorableStdout()
	useColor             = isatty.IsTerminal(os.Stdout.Fd())
	globalLvl  Level      = LvlInfo

	errColor  = color.New(color.FgRed).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	infoColor = color.New(color.FgGreen).SprintFunc()
	dbgColor  = color.New(color.FgCyan).SprintFunc()
)

// SetLevel adjusts the process-wide minimum level that gets printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	globalLvl = l
}

// SetOutput redirects where log lines are written, used by tests to capture
// output deterministically.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	useColor = false
}

// Logger is a module-scoped structured logger.
type Logger struct {
	module Module
}

// NewModuleLogger returns a Logger tagged with module, mirroring the
// teacher's log.NewModuleLogger(log.Common) convention.
func NewModuleLogger(module Module) *Logger {
	return &Logger{module: module}
}

func (lg *Logger) Error(msg string, ctx ...interface{}) { lg.log(LvlError, msg, ctx) }
func (lg *Logger) Warn(msg string, ctx ...interface{})  { lg.log(LvlWarn, msg, ctx) }
func (lg *Logger) Info(msg string, ctx ...interface{})  { lg.log(LvlInfo, msg, ctx) }
func (lg *Logger) Debug(msg string, ctx ...interface{}) { lg.log(LvlDebug, msg, ctx) }

// Dump logs a full recursive representation of v at debug level, for the
// cases a key=value pair is too shallow to diagnose from (a rejected block
// header, a malformed transaction). Suppressed below LvlDebug like Debug.
func (lg *Logger) Dump(msg string, v interface{}) {
	mu.Lock()
	lvl := globalLvl
	mu.Unlock()
	if lvl < LvlDebug {
		return
	}
	lg.log(LvlDebug, msg+"\n"+spew.Sdump(v), nil)
}

func (lg *Logger) log(lvl Level, msg string, ctx []interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl > globalLvl {
		return
	}

	ts := time.Now().Format("2006-01-02T15:04:05.000")
	caller := ""
	if cs := stack.Caller(2); true {
		caller = fmt.Sprintf("%+v", cs)
	}

	level := lvl.String()
	if useColor {
		switch lvl {
		case LvlError:
			level = errColor(level)
		case LvlWarn:
			level = warnColor(level)
		case LvlInfo:
			level = infoColor(level)
		case LvlDebug:
			level = dbgColor(level)
		}
	}

	fmt.Fprintf(out, "%s [%s] [%-6s] %s", ts, level, lg.module, msg)
	for i := 0; i+1 < len(ctx); i += 2 {
		fmt.Fprintf(out, " %v=%v", ctx[i], ctx[i+1])
	}
	if len(ctx)%2 == 1 {
		fmt.Fprintf(out, " %v=<missing>", ctx[len(ctx)-1])
	}
	fmt.Fprintf(out, " caller=%s\n", caller)
}
