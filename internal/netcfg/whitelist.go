// Package netcfg parses the CLI-facing CIDR whitelist and duration flags.
package netcfg

import (
	"fmt"
	"net"
	"strings"
)

// Whitelist is a non-empty set of CIDR networks gating an operation class.
// A nil *Whitelist means unrestricted.
type Whitelist struct {
	networks []*net.IPNet
}

// Contains reports whether ip is allowed by the whitelist. A nil receiver
// (absent whitelist) allows everything.
func (w *Whitelist) Contains(ip net.IP) bool {
	if w == nil {
		return true
	}
	for _, n := range w.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

type op int

const (
	opRead op = iota
	opWrite
	opReadWrite
)

func parseOp(s string) (op, error) {
	switch s {
	case "r":
		return opRead, nil
	case "w":
		return opWrite, nil
	case "rw":
		return opReadWrite, nil
	default:
		return 0, fmt.Errorf("netcfg: unknown whitelist operation %q (want r, w or rw)", s)
	}
}

// ParseWhitelists parses a list of "<cidr>[:<op>]" entries (op defaults to
// "rw") into separate read and write whitelists. An entry's CIDR is added
// to the read list if op is r/rw, and to the write list if op is w/rw.
// Either returned whitelist is nil if no entry contributed to it, meaning
// that operation class is unrestricted.
func ParseWhitelists(entries []string) (read, write *Whitelist, err error) {
	var readNets, writeNets []*net.IPNet

	for _, entry := range entries {
		cidrPart, opPart := entry, "rw"
		if idx := strings.IndexByte(entry, ':'); idx >= 0 {
			cidrPart, opPart = entry[:idx], entry[idx+1:]
		}

		o, err := parseOp(opPart)
		if err != nil {
			return nil, nil, err
		}

		_, network, err := net.ParseCIDR(cidrPart)
		if err != nil {
			return nil, nil, fmt.Errorf("netcfg: parsing CIDR %q: %w", cidrPart, err)
		}

		if o == opRead || o == opReadWrite {
			readNets = append(readNets, network)
		}
		if o == opWrite || o == opReadWrite {
			writeNets = append(writeNets, network)
		}
	}

	if len(readNets) > 0 {
		read = &Whitelist{networks: readNets}
	}
	if len(writeNets) > 0 {
		write = &Whitelist{networks: writeNets}
	}

	return read, write, nil
}
