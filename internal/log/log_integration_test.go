package log

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"os"
	"path/filepath"
	"testing"
)

func TestLogging(t *testing.T) {
	// Create temp directory for test
	tempDir, err := os.MkdirTemp("", "lectern-log-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create log file path
	logPath := filepath.Join(tempDir, "test.log")

	// Create logger with debug level
	logger, err := New(Config{
		Level:    "debug",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	SetDefaultLogger(logger)

	// Log test messages at different levels
	Debug("Debug message", "test", true)
	Info("Info message", "test", true)
	Warn("Warning message", "test", true)
	Error("Error message", "error", fmt.Errorf("test error"))

	// Close logger to ensure file is written
	logger.Close()

	// Read log file
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	// Basic verification
	contentStr := string(content)
	assert.Contains(t, contentStr, "Debug message")
	assert.Contains(t, contentStr, "Info message")
	assert.Contains(t, contentStr, "Warning message")
	assert.Contains(t, contentStr, "Error message")
	assert.Contains(t, contentStr, "test error")
}

func TestLoggerWith(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "with.log")

	logger, err := New(Config{Level: "info", FilePath: logPath})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.With("request_id", "abc-123").Info("Handled request")
	logger.Debug("Filtered out")
	logger.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	assert.Contains(t, contentStr, `"request_id":"abc-123"`)
	assert.NotContains(t, contentStr, "Filtered out")
}

func TestStdoutLogger(t *testing.T) {
	logger, err := New(Config{Level: "trace", FilePath: Stdout})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	assert.True(t, logger.traceEnabled)
	// Closing a stdout logger must not close stdout
	logger.Close()
}

func TestTraceOnlyAtTraceLevel(t *testing.T) {
	for _, level := range []string{"debug", "trace"} {
		logPath := filepath.Join(t.TempDir(), level+".log")
		logger, err := New(Config{Level: level, FilePath: logPath})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		SetDefaultLogger(logger)
		Trace("Query", "rows", 1)
		logger.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		if level == "trace" {
			assert.Contains(t, string(content), "TRACE: Query")
		} else {
			assert.NotContains(t, string(content), "TRACE: Query")
		}
	}
	SetDefaultLogger(nil)
}

func TestPackageFunctionsWithoutDefaultLogger(t *testing.T) {
	SetDefaultLogger(nil)
	assert.Nil(t, DefaultLogger())
	assert.NotPanics(t, func() {
		Debug("dropped")
		Info("dropped")
		Warn("dropped")
		Error("dropped")
		Trace("dropped")
	})
}
