// internal/logging/logging.go
// Package logging configures the process-wide logger and provides helpers
// for tracing model-call traffic.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes log output to stdout plus an optional log file. Calling it
// again closes any previously opened file.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{os.Stdout}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close releases the log file and restores stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes one formatted log line.
func LogEvent(format string, args ...any) {
	log.Println(fmt.Sprintf(format, args...))
}

// LogModelCall traces one leg of a model invocation. direction is
// "BENCH->LLM" or "LLM->BENCH"; only the payload size is logged so context
// echoes do not flood the log.
func LogModelCall(direction, model string, payloadChars int, note string) {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	modelValue := strings.TrimSpace(model)
	if modelValue == "" {
		modelValue = "unknown"
	}
	line := fmt.Sprintf("[%s] model=%s chars=%d", dir, modelValue, payloadChars)
	if note = strings.TrimSpace(note); note != "" {
		line += " " + note
	}
	log.Println(line)
}
