// Package envconfig reads interpreter settings from the environment.
//
// Every setting is exposed as a getter so callers read the current value at
// the point of use:
//   - INTERP_DEBUG: log level (0/false info, 1/true debug, 2 trace)
//   - INTERP_PARALLEL: split forward kernels across goroutines
//   - INTERP_NUM_THREADS: worker limit for parallel kernels
//   - INTERP_MIN_CHUNK: minimum outer iterations per worker
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// LogLevel returns the log level for the application.
// Value can be 0/false (INFO), 1/true (DEBUG) or 2 (TRACE).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("INTERP_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

var (
	// Parallel enables goroutine fan-out inside forward kernels.
	Parallel = BoolWithDefault("INTERP_PARALLEL")
	// NumThreads caps the number of concurrent kernel workers.
	NumThreads = Uint("INTERP_NUM_THREADS", uint(runtime.NumCPU()))
	// MinChunk is the minimum number of outer loop iterations given to one worker.
	MinChunk = Uint("INTERP_MIN_CHUNK", 4)
)

// Var returns an environment variable stripped of leading and trailing quotes
// or spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean variable. Unparseable values
// count as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for a boolean variable defaulting to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// Uint returns a getter for an unsigned integer variable.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// EnvVar describes one setting for listings.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"INTERP_DEBUG":       {"INTERP_DEBUG", LogLevel(), "Show additional debug information (e.g. INTERP_DEBUG=1)"},
		"INTERP_PARALLEL":    {"INTERP_PARALLEL", Parallel(runtime.NumCPU() > 1), "Split forward kernels across goroutines"},
		"INTERP_NUM_THREADS": {"INTERP_NUM_THREADS", NumThreads(), "Maximum number of kernel worker goroutines"},
		"INTERP_MIN_CHUNK":   {"INTERP_MIN_CHUNK", MinChunk(), "Minimum outer iterations handed to one worker"},
	}
}

// Values returns every setting formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
