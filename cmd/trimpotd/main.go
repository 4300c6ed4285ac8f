package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"strconv"

	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
	"github.com/trimpotd/trimpotd"
	showcurves "github.com/trimpotd/trimpotd/cmd/trimpotd/show_curves"
	showsensors "github.com/trimpotd/trimpotd/cmd/trimpotd/show_sensors"
	"github.com/trimpotd/trimpotd/hwmon/sensor"
	"github.com/trimpotd/trimpotd/mcp4x"
	"github.com/trimpotd/trimpotd/serialbridge"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cpath string
	dummy bool
)

func main() {
	cmd := &cobra.Command{
		Use:     "trimpotd",
		Short:   "A temperature-compensated trimming daemon for MCP41XXX/MCP42XXX digital potentiometers",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		RunE:    daemon,
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/trimpotd/trimpotd.yml", "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Start trimpotd with a dummy digipot")
	cmd.AddCommand(showcurves.Command())
	cmd.AddCommand(showsensors.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for trimpotd",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func daemon(_ *cobra.Command, args []string) error {
	cfg, err := trimpotd.Load(cpath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := logger.NewSlogTextHandler(os.Stdout, &logger.SlogTextOption{
		Level:            level,
		ForceColors:      true,
		ForceFormatting:  true,
		PrefixRE:         regexp.MustCompile(`^(\[.*?\])\s`),
		DisableTimestamp: true, // Provided by journalctl
	})
	log := logger.WrapSlogHandler(h)
	ctx := logger.WithLogger(context.Background(), log)

	log.Infof("trimpotd version %s", version)

	var pot trimpotd.Digipot = trimpotd.NewDummyDigipot()
	if !dummy {
		transport, closer, err := openTransport(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := closer.Close(); err != nil {
				log.WithError(err).Error("Could not close transport")
			}
		}()

		log.Infof("Digipot %s via %s on `%s`", cfg.Device.Variant, cfg.Device.Transport, cfg.Device.Port)

		switch cfg.Device.Variant {
		case trimpotd.VariantMCP41x:
			dev := mcp4x.NewMCP41x(transport)
			defer dev.Destroy()
			pot = dev
		default:
			dev := mcp4x.NewMCP42x(transport)
			defer dev.Destroy()
			pot = dev
		}
	}

	collector, err := sensor.New()
	if err != nil {
		return err
	}

	temps, err := trimCollector(cfg, collector)
	if err != nil {
		return err
	}

	shaper, err := trimpotd.NewTrimShaper(cfg, temps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controller, err := trimpotd.New(cfg, pot, collector, shaper)
	if err != nil {
		return err
	}
	controller.Launch(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	<-ctx.Done()
	cancel()
	controller.Wait()

	log.Info("Gracefully shutdown")
	return nil
}

func openTransport(cfg trimpotd.Config, log logger.Logger) (mcp4x.Transport, io.Closer, error) {
	switch cfg.Device.Transport {
	case trimpotd.TransportBridge:
		bridge, err := serialbridge.Open(cfg.Device.Port)
		if err != nil {
			return nil, nil, fmt.Errorf("bridge: %w", err)
		}
		if cfg.Debug {
			bridge.SetLogger(log)
		}

		return bridge, bridge, nil

	default: // spidev
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("spidev: %w", err)
		}

		port, err := spireg.Open(cfg.Device.Port)
		if err != nil {
			return nil, nil, fmt.Errorf("spidev: %w", err)
		}

		conn, err := port.Connect(mcp4x.MaxFrequency, mcp4x.Mode, 8)
		if err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("spidev: %w", err)
		}

		return mcp4x.NewSPI(conn), port, nil
	}
}

func trimCollector(cfg trimpotd.Config, collector *sensor.Collector) ([]sensor.Temperature, error) {
	temps, err := collector.Temperatures()
	if err != nil {
		return nil, fmt.Errorf("collect temperatures: %w", err)
	}

	referenced := map[string]bool{}
	for _, pot := range cfg.PotSettings {
		for _, point := range pot.CurvePoints {
			for _, thresholds := range point {
				for name := range thresholds {
					referenced[name] = true
				}
			}
		}
	}

	var unwanted []string
	exists := map[string]bool{}
	for _, temp := range temps {
		exists[temp.Name] = true
		if !referenced[temp.Name] {
			unwanted = append(unwanted, temp.Name)
		}
	}

	for name := range referenced {
		if !exists[name] {
			return nil, fmt.Errorf("not found: %s", strconv.Quote(name))
		}
	}

	collector.Drop(unwanted...)
	return temps, nil
}
