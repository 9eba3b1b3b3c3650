package service

import (
	"testing"

	"github.com/simonvetter/modbus"

	"github.com/kjrn/modregd/internal/logging"
	"github.com/kjrn/modregd/internal/netcfg"
	"github.com/kjrn/modregd/internal/packfmt"
	"github.com/kjrn/modregd/internal/persist"
	"github.com/kjrn/modregd/internal/regstore"
)

func newTestStore() *regstore.Store {
	doc := &persist.Document{
		Coils:            map[uint16]uint16{1: 1, 2: 0},
		DiscreteInputs:   map[uint16]uint16{10001: 1},
		InputRegisters:   map[uint16]uint16{30001: 5},
		HoldingRegisters: map[uint16]uint16{40001: 42, 40002: 7},
		Keys:             []packfmt.Key{},
	}
	return regstore.FromDocument(doc)
}

func unrestricted(store *regstore.Store) *Service {
	return New(store, nil, nil, logging.New(logging.Off))
}

func TestHandleCoilsRead(t *testing.T) {
	svc := unrestricted(newTestStore())
	got, err := svc.HandleCoils(&modbus.CoilsRequest{ClientAddr: "1.2.3.4", Addr: 1, Quantity: 2})
	if err != nil {
		t.Fatalf("HandleCoils: %v", err)
	}
	if !got[0] || got[1] {
		t.Errorf("HandleCoils read = %v", got)
	}
}

func TestHandleCoilsWriteSingle(t *testing.T) {
	svc := unrestricted(newTestStore())
	_, err := svc.HandleCoils(&modbus.CoilsRequest{
		ClientAddr:    "1.2.3.4",
		WriteFuncCode: modbus.FC_WRITE_SINGLE_COIL,
		IsWrite:       true,
		Addr:          2,
		Args:          []bool{true},
	})
	if err != nil {
		t.Fatalf("HandleCoils write: %v", err)
	}

	got, _ := svc.HandleCoils(&modbus.CoilsRequest{ClientAddr: "1.2.3.4", Addr: 2, Quantity: 1})
	if !got[0] {
		t.Error("coil 2 not updated by write")
	}
}

func TestHandleCoilsWriteMultipleIsIllegalFunction(t *testing.T) {
	svc := unrestricted(newTestStore())
	_, err := svc.HandleCoils(&modbus.CoilsRequest{
		ClientAddr:    "1.2.3.4",
		WriteFuncCode: modbus.FC_WRITE_MULTIPLE_COILS,
		IsWrite:       true,
		Addr:          1,
		Args:          []bool{true, false},
	})
	if err != modbus.ErrIllegalFunction {
		t.Errorf("write multiple coils = %v, want ErrIllegalFunction", err)
	}
}

func TestHandleHoldingRegistersReadWrite(t *testing.T) {
	svc := unrestricted(newTestStore())

	got, err := svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{ClientAddr: "1.2.3.4", Addr: 40001, Quantity: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0] != 42 || got[1] != 7 {
		t.Errorf("got %v", got)
	}

	_, err = svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{
		ClientAddr: "1.2.3.4", IsWrite: true, Addr: 40001, Args: []uint16{100},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	got, _ = svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{ClientAddr: "1.2.3.4", Addr: 40001, Quantity: 1})
	if got[0] != 100 {
		t.Errorf("holding[40001] = %v after write, want 100", got[0])
	}
}

func TestHandleOutOfBoundsMapsToIllegalDataAddress(t *testing.T) {
	svc := unrestricted(newTestStore())
	_, err := svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{ClientAddr: "1.2.3.4", Addr: 40001, Quantity: 5})
	if err != modbus.ErrIllegalDataAddress {
		t.Errorf("out-of-bounds read = %v, want ErrIllegalDataAddress", err)
	}
}

func TestWriteDeniedByWhitelist(t *testing.T) {
	_, write, err := netcfg.ParseWhitelists([]string{"10.0.0.0/24:w"})
	if err != nil {
		t.Fatalf("ParseWhitelists: %v", err)
	}
	svc := New(newTestStore(), nil, write, logging.New(logging.Off))

	_, err = svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{
		ClientAddr: "8.8.8.8", IsWrite: true, Addr: 40001, Args: []uint16{1},
	})
	if err != modbus.ErrIllegalDataValue {
		t.Errorf("write from non-whitelisted client = %v, want ErrIllegalDataValue", err)
	}
}

func TestReadAllowedWhenOnlyWriteRestricted(t *testing.T) {
	_, write, err := netcfg.ParseWhitelists([]string{"10.0.0.0/24:w"})
	if err != nil {
		t.Fatalf("ParseWhitelists: %v", err)
	}
	svc := New(newTestStore(), nil, write, logging.New(logging.Off))

	// Read whitelist was never set, so reads stay unrestricted even though
	// a write whitelist is active — the two operation classes are independent.
	_, err = svc.HandleHoldingRegisters(&modbus.HoldingRegistersRequest{ClientAddr: "8.8.8.8", Addr: 40001, Quantity: 1})
	if err != nil {
		t.Errorf("read with no read whitelist = %v, want nil", err)
	}
}

func TestHandleDiscreteInputsAndInputRegisters(t *testing.T) {
	svc := unrestricted(newTestStore())

	bits, err := svc.HandleDiscreteInputs(&modbus.DiscreteInputsRequest{ClientAddr: "1.2.3.4", Addr: 10001, Quantity: 1})
	if err != nil || !bits[0] {
		t.Errorf("HandleDiscreteInputs = %v, %v", bits, err)
	}

	regs, err := svc.HandleInputRegisters(&modbus.InputRegistersRequest{ClientAddr: "1.2.3.4", Addr: 30001, Quantity: 1})
	if err != nil || regs[0] != 5 {
		t.Errorf("HandleInputRegisters = %v, %v", regs, err)
	}
}
