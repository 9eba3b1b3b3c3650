// Package packfmt decodes the typed-key grammar used by the persistence
// document: "<decimal address>[/<code>]", where the optional single-letter
// code selects the pack type's width and signedness (the default is an
// unsigned 16-bit word).
package packfmt

import (
	"errors"
	"strconv"
	"strings"
)

// Type is the width+signedness tag carried by a key.
type Type int

const (
	U16 Type = iota
	I16
	U32
	I32
	U64
	I64
)

// Words reports how many consecutive 16-bit Modbus registers a value of
// this type occupies.
func (t Type) Words() int {
	switch t {
	case U16, I16:
		return 1
	case U32, I32:
		return 2
	case U64, I64:
		return 4
	default:
		return 0
	}
}

// Signed reports whether t is a signed pack type.
func (t Type) Signed() bool {
	switch t {
	case I16, I32, I64:
		return true
	default:
		return false
	}
}

func (t Type) code() byte {
	switch t {
	case U16:
		return 'H'
	case I16:
		return 'h'
	case U32:
		return 'I'
	case I32:
		return 'i'
	case U64:
		return 'Q'
	case I64:
		return 'q'
	default:
		return 0
	}
}

func typeFromChar(c byte) (Type, bool) {
	switch c {
	case 'h':
		return I16, true
	case 'H':
		return U16, true
	case 'i':
		return I32, true
	case 'I':
		return U32, true
	case 'q':
		return I64, true
	case 'Q':
		return U64, true
	default:
		return 0, false
	}
}

// ErrUnsupported is returned when a key string doesn't match the grammar.
var ErrUnsupported = errors.New("unsupported key format")

// Key identifies an address plus how it's packed into consecutive registers.
type Key struct {
	Address uint16
	Type    Type
}

// String renders the key back into persistence-document form. Omits the
// pack code for the default U16 type, matching how keys without a "/"
// suffix round-trip.
func (k Key) String() string {
	if k.Type == U16 {
		return strconv.FormatUint(uint64(k.Address), 10)
	}
	return strconv.FormatUint(uint64(k.Address), 10) + "/" + string(k.Type.code())
}

// Parse decodes a key string. Parsing is total: it never panics, and any
// grammar violation (bad address, missing/empty/multi-char/unknown suffix)
// yields ErrUnsupported rather than propagating a lower-level parse error.
func Parse(s string) (Key, error) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		addr, err := strconv.ParseUint(s[:idx], 10, 16)
		if err != nil {
			return Key{}, ErrUnsupported
		}

		suffix := s[idx+1:]
		if len(suffix) != 1 {
			return Key{}, ErrUnsupported
		}

		t, ok := typeFromChar(suffix[0])
		if !ok {
			return Key{}, ErrUnsupported
		}

		return Key{Address: uint16(addr), Type: t}, nil
	}

	addr, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return Key{}, ErrUnsupported
	}

	return Key{Address: uint16(addr), Type: U16}, nil
}
