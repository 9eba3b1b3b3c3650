package netcfg

import (
	"net"
	"testing"
	"time"
)

func TestParseWhitelistsDefaultReadWrite(t *testing.T) {
	read, write, err := ParseWhitelists([]string{"10.0.0.0/24"})
	if err != nil {
		t.Fatalf("ParseWhitelists: %v", err)
	}
	ip := net.ParseIP("10.0.0.5")
	if !read.Contains(ip) {
		t.Error("expected read whitelist to contain 10.0.0.5")
	}
	if !write.Contains(ip) {
		t.Error("expected write whitelist to contain 10.0.0.5")
	}
}

func TestParseWhitelistsExplicitOp(t *testing.T) {
	read, write, err := ParseWhitelists([]string{"10.0.0.0/24:r", "192.168.0.0/16:w"})
	if err != nil {
		t.Fatalf("ParseWhitelists: %v", err)
	}
	if !read.Contains(net.ParseIP("10.0.0.5")) {
		t.Error("expected read whitelist to contain 10.0.0.5")
	}
	if read.Contains(net.ParseIP("192.168.1.1")) {
		t.Error("did not expect read whitelist to contain 192.168.1.1")
	}
	if !write.Contains(net.ParseIP("192.168.1.1")) {
		t.Error("expected write whitelist to contain 192.168.1.1")
	}
	if write.Contains(net.ParseIP("10.0.0.5")) {
		t.Error("did not expect write whitelist to contain 10.0.0.5")
	}
}

func TestParseWhitelistsEmptyIsUnrestricted(t *testing.T) {
	read, write, err := ParseWhitelists(nil)
	if err != nil {
		t.Fatalf("ParseWhitelists: %v", err)
	}
	if read != nil || write != nil {
		t.Error("expected nil whitelists for no entries")
	}
	if !read.Contains(net.ParseIP("8.8.8.8")) {
		t.Error("nil whitelist must allow everything")
	}
}

func TestParseWhitelistsBadCIDR(t *testing.T) {
	if _, _, err := ParseWhitelists([]string{"not-a-cidr"}); err == nil {
		t.Error("expected error for malformed CIDR")
	}
}

func TestParseWhitelistsBadOp(t *testing.T) {
	if _, _, err := ParseWhitelists([]string{"10.0.0.0/24:x"}); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30s":  30 * time.Second,
		"500ms": 500 * time.Millisecond,
		"250us": 250 * time.Microsecond,
		"0s":   0,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseDurationRejectsBadInput(t *testing.T) {
	for _, in := range []string{"30", "30m", "-1s", "abc", ""} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q): expected error", in)
		}
	}
}
