// Package persist loads and saves the typed-key JSON register document.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kjrn/modregd/internal/packfmt"
	"github.com/kjrn/modregd/internal/words"
)

// ErrNoFile is returned by Load when path does not exist. Callers treat
// this as "start from an empty store", not a fatal error.
var ErrNoFile = errors.New("persist: no such file")

// InvalidError reports a malformed document: a key outside every Modbus
// address range, a value of the wrong JSON kind, a value that doesn't fit
// its pack type, or two keys whose register spans overlap.
type InvalidError struct {
	Msg string
}

func (e *InvalidError) Error() string { return "persist: " + e.Msg }

// IncompleteError reports that a key's register span is missing an address
// from the document's value maps. Serialize returns it; Parse never does.
type IncompleteError struct {
	Address uint16
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("persist: missing address %d", e.Address)
}

// Document is the fully parsed register document: one value map per
// Modbus address-space class, plus the ordered list of keys exactly as
// they appeared on disk. Any key may carry a pack-type suffix; for
// coil/discrete-input keys the suffix is kept in Keys but does not change
// the single-bit value stored.
type Document struct {
	Coils            map[uint16]uint16
	DiscreteInputs   map[uint16]uint16
	InputRegisters   map[uint16]uint16
	HoldingRegisters map[uint16]uint16
	Keys             []packfmt.Key
}

// bitValue accepts the two JSON forms the original document schema allows
// for coils and discrete inputs: a JSON boolean, or the integer 0/1.
func bitValue(raw json.RawMessage) (uint16, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, true
		}
		return 0, true
	}

	// json.Number also accepts a quoted number, so strings are ruled out first.
	var num json.Number
	if bytes.HasPrefix(raw, []byte{'"'}) || json.Unmarshal(raw, &num) != nil {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil || (n != 0 && n != 1) {
		return 0, false
	}
	return uint16(n), true
}

func newDocument() *Document {
	return &Document{
		Coils:            make(map[uint16]uint16),
		DiscreteInputs:   make(map[uint16]uint16),
		InputRegisters:   make(map[uint16]uint16),
		HoldingRegisters: make(map[uint16]uint16),
	}
}

// Load reads path and parses it. Returns ErrNoFile if path does not exist.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}

	return Parse(raw)
}

// Parse decodes a typed-key JSON document. It walks the input with a
// token-level json.Decoder, rather than unmarshalling into a map, so the
// object's on-disk key order is preserved in Document.Keys — a plain
// map[string]json.RawMessage would discard it.
func Parse(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, &InvalidError{Msg: "data is not valid JSON: " + err.Error()}
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, &InvalidError{Msg: "data is not an object"}
	}

	doc := newDocument()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &InvalidError{Msg: "error reading key: " + err.Error()}
		}
		rawKey, ok := keyTok.(string)
		if !ok {
			return nil, &InvalidError{Msg: "object key is not a string"}
		}

		key, err := packfmt.Parse(rawKey)
		if err != nil {
			return nil, &InvalidError{Msg: fmt.Sprintf("error parsing key %q", rawKey)}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &InvalidError{Msg: fmt.Sprintf("error reading value for key %q", rawKey)}
		}

		if err := doc.insert(key, raw); err != nil {
			return nil, err
		}
		doc.Keys = append(doc.Keys, key)
	}

	if _, err := dec.Token(); err != nil {
		return nil, &InvalidError{Msg: "error reading closing brace: " + err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &InvalidError{Msg: "trailing data after document"}
	}

	return doc, nil
}

func (doc *Document) insert(key packfmt.Key, raw json.RawMessage) error {
	addr := key.Address

	switch {
	case addr >= 1 && addr <= 9999, addr >= 10001 && addr <= 19999:
		n, ok := bitValue(raw)
		if !ok {
			return &InvalidError{Msg: fmt.Sprintf("key %q should be 0, 1, true or false", key.String())}
		}

		table := doc.Coils
		if addr >= 10001 {
			table = doc.DiscreteInputs
		}
		if _, exists := table[addr]; exists {
			return &InvalidError{Msg: fmt.Sprintf("overwrote address at key %q", key.String())}
		}
		table[addr] = n

	case addr >= 30001 && addr <= 39999, addr >= 40001 && addr <= 49999:
		var num json.Number
		if bytes.HasPrefix(raw, []byte{'"'}) || json.Unmarshal(raw, &num) != nil {
			return &InvalidError{Msg: fmt.Sprintf("key %q should be a number", key.String())}
		}
		n, err := num.Int64()
		if err != nil {
			return &InvalidError{Msg: fmt.Sprintf("error parsing number at key %q", key.String())}
		}

		ws, err := words.ToWords(n, key.Type)
		if err != nil {
			return &InvalidError{Msg: fmt.Sprintf("key %q: %v", key.String(), err)}
		}

		table := doc.InputRegisters
		if addr >= 40001 {
			table = doc.HoldingRegisters
		}
		for i, w := range ws {
			a := addr + uint16(i)
			if _, exists := table[a]; exists {
				return &InvalidError{Msg: fmt.Sprintf("overwrote register at key %q", key.String())}
			}
			table[a] = w
		}

	default:
		return &InvalidError{Msg: fmt.Sprintf("key %d is outside modbus range", addr)}
	}

	return nil
}

// Serialize re-encodes doc into pretty-printed JSON, re-assembling each
// key's multi-word register value from its class's value map and
// preserving Document.Keys' order.
func Serialize(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, key := range doc.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(key.String())
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		value, err := doc.valueFor(key)
		if err != nil {
			return nil, err
		}
		buf.WriteString(value)
	}

	buf.WriteByte('}')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}

	return pretty.Bytes(), nil
}

func (doc *Document) valueFor(key packfmt.Key) (string, error) {
	addr := key.Address

	switch {
	case addr >= 1 && addr <= 9999:
		n, ok := doc.Coils[addr]
		if !ok {
			return "", &IncompleteError{Address: addr}
		}
		return fmt.Sprintf("%d", n), nil

	case addr >= 10001 && addr <= 19999:
		n, ok := doc.DiscreteInputs[addr]
		if !ok {
			return "", &IncompleteError{Address: addr}
		}
		return fmt.Sprintf("%d", n), nil

	case addr >= 30001 && addr <= 39999, addr >= 40001 && addr <= 49999:
		table := doc.InputRegisters
		if addr >= 40001 {
			table = doc.HoldingRegisters
		}

		n := key.Type.Words()
		ws := make([]uint16, n)
		for i := 0; i < n; i++ {
			w, ok := table[addr+uint16(i)]
			if !ok {
				return "", &IncompleteError{Address: addr + uint16(i)}
			}
			ws[i] = w
		}

		v, err := words.FromWords(ws, key.Type)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil

	default:
		return "", &InvalidError{Msg: fmt.Sprintf("key %d is outside modbus range", addr)}
	}
}

// Write serializes doc and writes it to path, truncating any existing file.
func Write(doc *Document, path string) error {
	raw, err := Serialize(doc)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("persist: opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(raw); err != nil {
		return fmt.Errorf("persist: writing %s: %w", path, err)
	}

	return f.Sync()
}
