package logging

import (
	"testing"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

func TestInitWithoutFileLogging(t *testing.T) {
	cfg := Config{Level: "debug"}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Info("test message")
	if err := Sync(); err != nil {
		t.Logf("Sync() returned %v (expected on some stdout sinks)", err)
	}
}

func TestInitWithRotatedFileLogging(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = t.TempDir()
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Error("boom")
}

func TestErrorSinkLogsCode(t *testing.T) {
	if err := Init(Config{Level: "debug"}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	sink := ErrorSink{}
	sink.LogError(core.ErrParse)
}

func TestGetFallsBackWithoutInit(t *testing.T) {
	mu.Lock()
	globalLogger = nil
	globalSugar = nil
	mu.Unlock()

	l := Get()
	if l == nil {
		t.Fatal("Get() returned nil")
	}
}
