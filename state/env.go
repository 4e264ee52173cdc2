// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"silk/compiler"
	"silk/config"
	"silk/misc"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Session identifies single program run in logs and debug report.
	Session uuid.UUID
	// WorkDir collects intermediate files for debug report, empty when no
	// report was requested.
	WorkDir string

	// used by generate and critical subcommands
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// PrepareWorkDir creates working directory and registers it with debug
// report. Does nothing when report was not requested.
func (e *LocalEnv) PrepareWorkDir() error {
	if e.Rpt == nil || e.WorkDir != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", misc.GetAppName()+"-"+e.Session.String()+"-")
	if err != nil {
		return fmt.Errorf("unable to create working directory: %w", err)
	}
	e.WorkDir = dir
	e.Rpt.Store("work", dir)
	return nil
}

// RemoveWorkDir removes working directory, report must be closed by then.
func (e *LocalEnv) RemoveWorkDir() error {
	if e.WorkDir == "" {
		return nil
	}
	dir := e.WorkDir
	e.WorkDir = ""
	return os.RemoveAll(dir)
}

// Tracer returns compilation tracer writing into working directory, disabled
// when there is none.
func (e *LocalEnv) Tracer() *compiler.Tracer {
	return compiler.NewTracer(e.WorkDir)
}
