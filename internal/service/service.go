// Package service implements the modbus.RequestHandler dispatcher: it
// maps incoming Modbus/TCP requests onto the register store, enforcing
// per-operation CIDR access control before every read or write.
package service

import (
	"net"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"

	"github.com/kjrn/modregd/internal/logging"
	"github.com/kjrn/modregd/internal/netcfg"
	"github.com/kjrn/modregd/internal/regstore"
)

// Service dispatches Modbus requests against a register Store, gated by
// a pair of CIDR whitelists. Polarity is intuitive: reads are checked
// against the read whitelist, writes against the write whitelist — a
// client present only in the write list may still not read, and vice
// versa.
type Service struct {
	store          *regstore.Store
	readWhitelist  *netcfg.Whitelist
	writeWhitelist *netcfg.Whitelist
	log            *logging.Logger
}

// New builds a Service. Either whitelist may be nil, meaning that
// operation class is unrestricted.
func New(store *regstore.Store, readWhitelist, writeWhitelist *netcfg.Whitelist, log *logging.Logger) *Service {
	return &Service{
		store:          store,
		readWhitelist:  readWhitelist,
		writeWhitelist: writeWhitelist,
		log:            log,
	}
}

func peerIP(clientAddr string) net.IP {
	if ip := net.ParseIP(clientAddr); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(clientAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func (s *Service) allowRead(clientAddr string) bool {
	return s.readWhitelist.Contains(peerIP(clientAddr))
}

func (s *Service) allowWrite(clientAddr string) bool {
	return s.writeWhitelist.Contains(peerIP(clientAddr))
}

func (s *Service) denyRead(clientAddr string, class regstore.Class) {
	s.log.Warn("read denied by whitelist",
		zap.String("client", clientAddr),
		zap.Int("class", int(class)))
}

func (s *Service) denyWrite(clientAddr string, class regstore.Class) {
	s.log.Warn("write denied by whitelist",
		zap.String("client", clientAddr),
		zap.Int("class", int(class)))
}

// mapStoreErr translates a regstore error into the modbus exception the
// wire protocol expects.
func mapStoreErr(err error) error {
	switch err {
	case nil:
		return nil
	case regstore.ErrOutOfBounds:
		return modbus.ErrIllegalDataAddress
	case regstore.ErrFileWriteError:
		return modbus.ErrServerDeviceFailure
	default:
		return modbus.ErrServerDeviceFailure
	}
}

// HandleCoils handles read coils, write single coil and write multiple
// coils. Write multiple coils (0x0f) is explicitly unsupported and
// always answers illegal function, regardless of whitelist state.
func (s *Service) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	if req.IsWrite {
		if req.WriteFuncCode == modbus.FC_WRITE_MULTIPLE_COILS {
			return nil, modbus.ErrIllegalFunction
		}

		if !s.allowWrite(req.ClientAddr) {
			s.denyWrite(req.ClientAddr, regstore.Coils)
			return nil, modbus.ErrIllegalDataValue
		}

		values := make([]uint16, len(req.Args))
		for i, b := range req.Args {
			if b {
				values[i] = 1
			}
		}
		if err := s.store.Write(regstore.Coils, req.Addr, values); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, nil
	}

	if !s.allowRead(req.ClientAddr) {
		s.denyRead(req.ClientAddr, regstore.Coils)
		return nil, modbus.ErrIllegalDataValue
	}

	words, err := s.store.Read(regstore.Coils, req.Addr, req.Quantity)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return boolsFromWords(words), nil
}

// HandleDiscreteInputs handles the read-only discrete inputs class.
func (s *Service) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	if !s.allowRead(req.ClientAddr) {
		s.denyRead(req.ClientAddr, regstore.DiscreteInputs)
		return nil, modbus.ErrIllegalDataValue
	}

	words, err := s.store.Read(regstore.DiscreteInputs, req.Addr, req.Quantity)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return boolsFromWords(words), nil
}

// HandleInputRegisters handles the read-only input registers class.
func (s *Service) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	if !s.allowRead(req.ClientAddr) {
		s.denyRead(req.ClientAddr, regstore.InputRegisters)
		return nil, modbus.ErrIllegalDataValue
	}

	words, err := s.store.Read(regstore.InputRegisters, req.Addr, req.Quantity)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return words, nil
}

// HandleHoldingRegisters handles read holding registers, write single
// register and write multiple registers.
func (s *Service) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if req.IsWrite {
		if !s.allowWrite(req.ClientAddr) {
			s.denyWrite(req.ClientAddr, regstore.HoldingRegisters)
			return nil, modbus.ErrIllegalDataValue
		}

		if err := s.store.Write(regstore.HoldingRegisters, req.Addr, req.Args); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, nil
	}

	if !s.allowRead(req.ClientAddr) {
		s.denyRead(req.ClientAddr, regstore.HoldingRegisters)
		return nil, modbus.ErrIllegalDataValue
	}

	words, err := s.store.Read(regstore.HoldingRegisters, req.Addr, req.Quantity)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return words, nil
}

func boolsFromWords(words []uint16) []bool {
	out := make([]bool, len(words))
	for i, w := range words {
		out[i] = w != 0
	}
	return out
}
