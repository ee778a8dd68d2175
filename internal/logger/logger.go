// Package logger configures the process-wide logrus logger used for
// diagnostics. Reports go to stdout; diagnostics go to stderr.
package logger

import (
	"fmt"
	"io"
	"path"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. An unparsable level falls
// back to warn and is reported as a warning.
func Setup(level, format string, out io.Writer) {
	log.SetOutput(out)

	switch format {
	case "json":
		log.SetReportCaller(true)
		log.SetFormatter(&log.JSONFormatter{
			CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
				return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
			},
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		log.SetReportCaller(false)
		log.SetFormatter(&log.TextFormatter{
			DisableTimestamp: true,
		})
	}

	loggerLevel, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.WarnLevel)
		log.Warnf("Level setup default WARN, err: %v", err)
		return
	}
	log.SetLevel(loggerLevel)
}
