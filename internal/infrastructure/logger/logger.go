package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

var (
	Info  *log.Logger
	Error *log.Logger
	Debug *log.Logger
	Warn  *log.Logger
)

func init() {
	logFlags := log.Ldate | log.Ltime | log.LUTC

	Info = log.New(os.Stdout, "INFO: ", logFlags)
	Error = log.New(os.Stdout, "ERROR: ", logFlags)
	Debug = log.New(io.Discard, "DEBUG: ", logFlags|log.Lshortfile)
	Warn = log.New(os.Stdout, "WARN: ", logFlags)
}

// SetLevel silences loggers below the given level. Unknown levels keep the
// default (info).
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		Debug.SetOutput(os.Stdout)
	case "warn":
		Info.SetOutput(io.Discard)
	case "error":
		Info.SetOutput(io.Discard)
		Warn.SetOutput(io.Discard)
	}
}
