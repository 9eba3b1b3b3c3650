// Package regstore holds the live, in-memory register map backing the
// Modbus server, independently locked per address-space class.
package regstore

import (
	"errors"
	"sync"

	"github.com/kjrn/modregd/internal/packfmt"
	"github.com/kjrn/modregd/internal/persist"
)

// Class identifies one of the four disjoint Modbus address spaces.
type Class int

const (
	Coils Class = iota
	DiscreteInputs
	InputRegisters
	HoldingRegisters
)

// Bounds returns the inclusive [min, max] Modbus address range for c.
func (c Class) Bounds() (min, max uint16) {
	switch c {
	case Coils:
		return 1, 9999
	case DiscreteInputs:
		return 10001, 19999
	case InputRegisters:
		return 30001, 39999
	case HoldingRegisters:
		return 40001, 49999
	default:
		return 0, 0
	}
}

// ErrOutOfBounds is returned when a read or write addresses registers
// outside the class's legal range, or outside the set of addresses the
// loaded schema actually defined (the schema is never auto-extended on
// write).
var ErrOutOfBounds = errors.New("regstore: address out of bounds")

// ErrFileWriteError is reserved for the dispatcher's mapping to
// modbus.ErrServerDeviceFailure; the store itself never returns it, since
// Write never touches the filesystem.
var ErrFileWriteError = errors.New("regstore: file write error")

type table struct {
	mu   sync.RWMutex
	data map[uint16]uint16
}

func newTable(src map[uint16]uint16) *table {
	data := make(map[uint16]uint16, len(src))
	for k, v := range src {
		data[k] = v
	}
	return &table{data: data}
}

// Store is the live register map. One RWMutex-guarded table per class:
// a write only ever locks the table it touches, never the others.
type Store struct {
	tables [4]*table
	keys   []packfmt.Key // immutable after construction
}

// New returns an empty store with no defined addresses.
func New() *Store {
	return &Store{
		tables: [4]*table{
			newTable(nil), newTable(nil), newTable(nil), newTable(nil),
		},
	}
}

// FromDocument builds a Store pre-populated from a loaded persistence
// document.
func FromDocument(doc *persist.Document) *Store {
	s := &Store{
		tables: [4]*table{
			newTable(doc.Coils),
			newTable(doc.DiscreteInputs),
			newTable(doc.InputRegisters),
			newTable(doc.HoldingRegisters),
		},
		keys: append([]packfmt.Key(nil), doc.Keys...),
	}
	return s
}

func (s *Store) table(c Class) *table {
	return s.tables[c]
}

// Read returns count register values from class starting at addr. All
// addresses in the span must already be defined (present in the loaded
// schema); Read never fabricates zero-filled gaps.
func (s *Store) Read(c Class, addr uint16, count uint16) ([]uint16, error) {
	t := s.table(c)
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]uint16, count)
	for i := uint16(0); i < count; i++ {
		v, ok := t.data[addr+i]
		if !ok {
			return nil, ErrOutOfBounds
		}
		out[i] = v
	}
	return out, nil
}

// Write stores values into class starting at addr. The check for "every
// address in the span already exists" happens before any mutation, so a
// write that fails partway through an out-of-schema tail leaves the table
// untouched — the whole span either commits or none of it does.
func (s *Store) Write(c Class, addr uint16, values []uint16) error {
	t := s.table(c)
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range values {
		if _, ok := t.data[addr+uint16(i)]; !ok {
			return ErrOutOfBounds
		}
	}

	for i, v := range values {
		t.data[addr+uint16(i)] = v
	}
	return nil
}

// Snapshot copies out all four tables' current contents plus the
// immutable key list, for handing to persist.Serialize. Each class's read
// lock is acquired and released in turn — the snapshot is not atomic
// across classes, only within each one.
func (s *Store) Snapshot() (*persist.Document, []packfmt.Key) {
	doc := &persist.Document{
		Coils:            s.copyTable(Coils),
		DiscreteInputs:   s.copyTable(DiscreteInputs),
		InputRegisters:   s.copyTable(InputRegisters),
		HoldingRegisters: s.copyTable(HoldingRegisters),
		Keys:             s.keys,
	}
	return doc, s.keys
}

func (s *Store) copyTable(c Class) map[uint16]uint16 {
	t := s.table(c)
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[uint16]uint16, len(t.data))
	for k, v := range t.data {
		out[k] = v
	}
	return out
}
