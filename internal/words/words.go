// Package words converts signed/unsigned 16/32/64-bit integers to and from
// big-endian sequences of 16-bit Modbus registers.
package words

import (
	"fmt"
	"math"

	"github.com/kjrn/modregd/internal/packfmt"
)

// ToWords produces exactly t.Words() words, big-endian, word 0 holding the
// most significant 16 bits. For signed pack types, n must fit in the
// target signed width; for unsigned pack types, n must be non-negative.
// 64-bit pack types reinterpret n's bit pattern directly: n is carried as
// int64 throughout this package, so unsigned 64-bit values above
// math.MaxInt64 can't be represented (see DESIGN.md).
func ToWords(n int64, t packfmt.Type) ([]uint16, error) {
	switch t {
	case packfmt.U16:
		if n < 0 {
			return nil, fmt.Errorf("words: negative value %d for unsigned 16-bit type", n)
		}
		if n > math.MaxUint16 {
			return nil, fmt.Errorf("words: value %d does not fit in 16 bits", n)
		}
		return []uint16{uint16(n)}, nil

	case packfmt.I16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("words: value %d does not fit in a signed 16-bit integer", n)
		}
		return []uint16{uint16(int16(n))}, nil

	case packfmt.U32:
		if n < 0 {
			return nil, fmt.Errorf("words: negative value %d for unsigned 32-bit type", n)
		}
		if n > math.MaxUint32 {
			return nil, fmt.Errorf("words: value %d does not fit in 32 bits", n)
		}
		v := uint32(n)
		return []uint16{uint16(v >> 16), uint16(v)}, nil

	case packfmt.I32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("words: value %d does not fit in a signed 32-bit integer", n)
		}
		v := uint32(int32(n))
		return []uint16{uint16(v >> 16), uint16(v)}, nil

	case packfmt.U64, packfmt.I64:
		if t == packfmt.U64 && n < 0 {
			return nil, fmt.Errorf("words: negative value %d for unsigned 64-bit type", n)
		}
		v := uint64(n)
		return []uint16{
			uint16(v >> 48),
			uint16(v >> 32),
			uint16(v >> 16),
			uint16(v),
		}, nil

	default:
		return nil, fmt.Errorf("words: unknown pack type %v", t)
	}
}

// FromWords consumes exactly t.Words() words and reassembles the integer,
// reinterpreting the bit pattern two's-complement for signed types.
func FromWords(ws []uint16, t packfmt.Type) (int64, error) {
	if len(ws) != t.Words() {
		return 0, fmt.Errorf("words: expected %d words for %v, got %d", t.Words(), t, len(ws))
	}

	switch t {
	case packfmt.U16:
		return int64(ws[0]), nil

	case packfmt.I16:
		return int64(int16(ws[0])), nil

	case packfmt.U32:
		v := uint32(ws[0])<<16 | uint32(ws[1])
		return int64(v), nil

	case packfmt.I32:
		v := uint32(ws[0])<<16 | uint32(ws[1])
		return int64(int32(v)), nil

	case packfmt.U64:
		v := uint64(ws[0])<<48 | uint64(ws[1])<<32 | uint64(ws[2])<<16 | uint64(ws[3])
		return int64(v), nil

	case packfmt.I64:
		v := uint64(ws[0])<<48 | uint64(ws[1])<<32 | uint64(ws[2])<<16 | uint64(ws[3])
		return int64(v), nil

	default:
		return 0, fmt.Errorf("words: unknown pack type %v", t)
	}
}
