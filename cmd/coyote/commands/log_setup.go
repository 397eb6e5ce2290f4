package commands

import (
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/pipeline-foundation/coyote-sub000/internal/build"
	coyote "github.com/pipeline-foundation/coyote-sub000/internal/coyote"
	"github.com/pipeline-foundation/coyote-sub000/internal/coyote/strategy"
)

// logRotator is kept package-level so it can be closed once the command
// finishes, mirroring the daemon's defer-on-init pattern without needing a
// long-lived context here.
var logRotator *build.RotatingLogWriter

// setupLogging wires a console handler, and a rotating file handler when
// logDir is set, into both coyote and coyote/strategy's package loggers.
func setupLogging() error {
	var handlers []btclog.Handler

	handlers = append(handlers, btclog.NewDefaultHandler(os.Stderr))

	if logDir != "" {
		logRotator = build.NewRotatingLogWriter()

		err := logRotator.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDir,
			MaxLogFiles:    build.DefaultMaxLogFiles,
			MaxLogFileSize: build.DefaultMaxLogFileSize,
		})
		if err != nil {
			logRotator = nil
		} else {
			handlers = append(handlers, btclog.NewDefaultHandler(logRotator))
		}
	}

	combined := build.NewHandlerSet(handlers...)
	logger := btclog.NewSLogger(combined)

	coyote.UseLogger(logger)
	strategy.UseLogger(logger.WithPrefix("STGY"))

	return nil
}

// closeLogging flushes and closes the rotating log file, if one was opened.
func closeLogging() {
	if logRotator != nil {
		logRotator.Close()
	}
}
