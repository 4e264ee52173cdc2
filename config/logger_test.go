package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggingPrepare_ConsoleOnly(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "silk.log")},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Info("nothing to see")
	_ = log.Sync()

	if _, err := os.Stat(conf.FileLogger.Destination); !os.IsNotExist(err) {
		t.Errorf("log file should not be created, stat error = %v", err)
	}
}

func TestLoggingPrepare_File(t *testing.T) {
	t.Cleanup(func() { debug.SetCrashOutput(nil, debug.CrashOptions{}) })

	dir := t.TempDir()
	tests := []struct {
		name    string
		level   string
		debug   bool
		written bool
	}{
		{name: "debug", level: "debug", debug: true, written: true},
		{name: "normal", level: "normal", debug: false, written: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := LoggingConfig{
				ConsoleLogger: LoggerConfig{Level: "none"},
				FileLogger:    LoggerConfig{Level: tt.level, Destination: filepath.Join(dir, tt.name+".log"), Mode: "overwrite"},
			}
			log, err := conf.Prepare(nil)
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			log.Debug("debug message")
			log.Info("info message")
			_ = log.Sync()

			data, err := os.ReadFile(conf.FileLogger.Destination)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !strings.Contains(string(data), "info message") {
				t.Errorf("log = %q", data)
			}
			if got := strings.Contains(string(data), "debug message"); got != tt.debug {
				t.Errorf("debug message logged = %v, want %v", got, tt.debug)
			}
			if _, err := os.Stat(filepath.Join(dir, "silk-panic.log")); err != nil {
				t.Errorf("panic log was not prepared: %v", err)
			}
		})
	}
}

func TestLoggingPrepare_Report(t *testing.T) {
	t.Cleanup(func() { debug.SetCrashOutput(nil, debug.CrashOptions{}) })

	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "silk.log")},
	}
	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("forced debug")
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("report must force file logging: %v", err)
	}
	if !strings.Contains(string(data), "forced debug") {
		t.Errorf("log = %q", data)
	}
	if err := rpt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConsoleEncoder_FlattensErrors(t *testing.T) {
	enc := newEncoder(zap.NewDevelopmentEncoderConfig())
	err := multierr.Combine(errors.New("first"), errors.New("second"))

	buf, e := enc.EncodeEntry(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "failed"}, []zapcore.Field{zap.Error(err)})
	if e != nil {
		t.Fatalf("EncodeEntry() error = %v", e)
	}
	out := buf.String()
	if !strings.Contains(out, "first; second") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "errorCauses") || strings.Contains(out, "errorVerbose") {
		t.Errorf("error details were not flattened: %q", out)
	}
}
