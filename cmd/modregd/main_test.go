package main

import "testing"

func TestRunRejectsBadLogLevel(t *testing.T) {
	err := run("127.0.0.1:0", "1s", "verbose", "does-not-exist.json", nil)
	if err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestRunRejectsBadUpdateFrequency(t *testing.T) {
	err := run("127.0.0.1:0", "1m", "info", "does-not-exist.json", nil)
	if err == nil {
		t.Error("expected error for invalid update frequency")
	}
}

func TestRunRejectsBadWhitelist(t *testing.T) {
	err := run("127.0.0.1:0", "1s", "info", "does-not-exist.json", []string{"not-a-cidr"})
	if err == nil {
		t.Error("expected error for invalid whitelist entry")
	}
}
