package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off": Off, "error": Error, "warn": Warn,
		"info": Info, "debug": Debug, "trace": Trace,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelString(t *testing.T) {
	if Debug.String() != "debug" {
		t.Errorf("Debug.String() = %q, want debug", Debug.String())
	}
}

func withObserver(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{level: level, z: zap.New(core)}, logs
}

func TestTraceGatedBelowTraceLevel(t *testing.T) {
	l, logs := withObserver(Debug)
	l.Trace("should not appear")
	if logs.Len() != 0 {
		t.Errorf("Trace at Debug level logged %d entries, want 0", logs.Len())
	}
}

func TestTraceEmittedAtTraceLevel(t *testing.T) {
	l, logs := withObserver(Trace)
	l.Trace("hexdump detail")
	if logs.Len() != 1 {
		t.Errorf("Trace at Trace level logged %d entries, want 1", logs.Len())
	}
}

func TestDebugGatedBelowDebugLevel(t *testing.T) {
	l, logs := withObserver(Info)
	l.Debug("should not appear")
	if logs.Len() != 0 {
		t.Errorf("Debug at Info level logged %d entries, want 0", logs.Len())
	}
}

func TestNewOffIsSilent(t *testing.T) {
	l := New(Off)
	l.Error("should be silent")
	if err := l.Sync(); err != nil {
		// zap.NewNop's Sync is always nil; a non-nil error here would be surprising.
		t.Errorf("Sync on nop logger: %v", err)
	}
}
