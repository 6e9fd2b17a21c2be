// Package logger provides verbose logging for docrag.
// When verbose mode is enabled via the --verbose flag, pipeline stages
// are printed to stderr so users can follow extraction and retrieval.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects verbose logs away from os.Stderr. Useful for
// testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Section marks the start of a pipeline stage, such as decomposition
// or retrieval.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Debug prints fine-grained stage detail.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info prints stage progress.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn prints a recoverable problem, such as a degraded extraction
// strategy or an unreachable provider.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
