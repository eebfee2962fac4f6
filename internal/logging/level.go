package logging

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// Logging level. Higher values indicate more verbosity.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug
)

// Default level can be changed by environment variable.
var defaultLevel = Info

func parseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "E", "ERROR":
		return Error, nil
	case "W", "WARN":
		return Warn, nil
	case "I", "INFO":
		return Info, nil
	case "D", "DEBUG":
		return Debug, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		level := Level(n)
		if level >= Error && level <= Debug {
			return level, nil
		}
	}
	return Info, errors.New("invalid logging level: " + s)
}

func (l Level) String() string {
	switch l {
	case Error:
		return "Error"
	case Warn:
		return "Warn"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return strconv.Itoa(int(l))
	}
}

func (l Level) letter() byte {
	if l >= Error && l <= Debug {
		return "EWID"[l-Error]
	}
	return '?'
}

var (
	paintError = color.New(color.FgRed, color.Bold).SprintFunc()
	paintWarn  = color.New(color.FgYellow).SprintFunc()
	paintDebug = color.New(color.FgGreen).SprintFunc()
)

func (l Level) paint(s string) string {
	switch l {
	case Error:
		return paintError(s)
	case Warn:
		return paintWarn(s)
	case Debug:
		return paintDebug(s)
	default:
		return s
	}
}
