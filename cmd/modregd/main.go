// Command modregd serves a Modbus/TCP register map backed by a typed-key
// JSON document, periodically flushed back to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjrn/modregd/internal/logging"
	"github.com/kjrn/modregd/internal/netcfg"
	"github.com/kjrn/modregd/internal/persist"
	"github.com/kjrn/modregd/internal/persistloop"
	"github.com/kjrn/modregd/internal/regstore"
	"github.com/kjrn/modregd/internal/service"
)

func main() {
	var (
		updateFreqStr string
		logLevelStr   string
		dataPath      string
		whitelistStr  string
	)

	flag.StringVar(&updateFreqStr, "f", "1s", "how often to flush the persistence document (<uint>(s|ms|us))")
	flag.StringVar(&logLevelStr, "l", "info", "log level: off, error, warn, info, debug, trace")
	flag.StringVar(&dataPath, "data", "data.json", "path to the persistence document")
	flag.StringVar(&whitelistStr, "W", "", "comma-separated CIDR whitelist entries, each \"<cidr>[:r|w|rw]\"")
	flag.Parse()

	target := "0.0.0.0:502"
	if flag.NArg() > 0 {
		target = flag.Arg(0)
	}

	var whitelists []string
	if whitelistStr != "" {
		whitelists = strings.Split(whitelistStr, ",")
	}

	if err := run(target, updateFreqStr, logLevelStr, dataPath, whitelists); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(target, updateFreqStr, logLevelStr, dataPath string, whitelists []string) error {
	level, err := logging.ParseLevel(logLevelStr)
	if err != nil {
		return err
	}
	log := logging.New(level)
	defer log.Sync()

	updateFreq, err := netcfg.ParseDuration(updateFreqStr)
	if err != nil {
		return fmt.Errorf("parsing -f: %w", err)
	}

	readWhitelist, writeWhitelist, err := netcfg.ParseWhitelists(whitelists)
	if err != nil {
		return fmt.Errorf("parsing -W: %w", err)
	}

	doc, err := persist.Load(dataPath)
	switch {
	case errors.Is(err, persist.ErrNoFile):
		log.Info("no persistence document found, starting empty", zap.String("path", dataPath))
		doc = &persist.Document{
			Coils:            map[uint16]uint16{},
			DiscreteInputs:   map[uint16]uint16{},
			InputRegisters:   map[uint16]uint16{},
			HoldingRegisters: map[uint16]uint16{},
		}
	case err != nil:
		return fmt.Errorf("loading %s: %w", dataPath, err)
	}

	store := regstore.FromDocument(doc)
	svc := service.New(store, readWhitelist, writeWhitelist, log)

	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        "tcp://" + target,
		Timeout:    30 * time.Second,
		MaxClients: 32,
	}, svc)
	if err != nil {
		return fmt.Errorf("creating modbus server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting modbus server", zap.String("addr", target))
		if err := server.Start(); err != nil {
			return fmt.Errorf("starting modbus server: %w", err)
		}
		<-gctx.Done()
		return server.Stop()
	})

	group.Go(func() error {
		err := persistloop.Run(gctx, store, dataPath, updateFreq, log)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return group.Wait()
}
