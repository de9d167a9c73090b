// Package baseserver bundles the pieces every daemon entry point needs:
// parsed environment, loaded config and a configured logger.
package baseserver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"sysdiag/internals/assert"
	"sysdiag/internals/conf"
	"sysdiag/internals/env"
)

type BaseServer struct {
	Config  *conf.Config
	Env     *env.EnvStruct
	Logger  *slog.Logger
	logFile *os.File
}

func New() *BaseServer {
	environment := env.Get()
	config := conf.GetConfig()

	logger, logFile := initLogger(config)

	return &BaseServer{
		Config:  config,
		Env:     environment,
		Logger:  logger,
		logFile: logFile,
	}
}

// Close releases the log file. Safe to call on a BaseServer whose logger
// never opened one.
func (b *BaseServer) Close() {
	if b.logFile != nil {
		_ = b.logFile.Close()
	}
}

// initLogger writes to stdout and a log file under the data dir. Stdout gets
// colorized output on a terminal and JSON otherwise, so piped or collected
// logs stay machine-readable.
func initLogger(config *conf.Config) (*slog.Logger, *os.File) {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[CORE] Failed to initialize log directory")

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[CORE] Failed to open log file")

	logWriter := io.MultiWriter(os.Stdout, logFile)
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = tint.NewHandler(logWriter, &tint.Options{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	} else {
		handler = slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger, logFile
}
