package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sergw-project/sergw/internal/gateway"
	"github.com/sergw-project/sergw/internal/inspector"
	"github.com/sergw-project/sergw/internal/metrics"
	"github.com/sergw-project/sergw/internal/serialio"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Bridge a serial device to TCP clients",
	RunE:  runListen,
}

func init() {
	cfg := defaultListenConfig()
	listenCmd.Flags().StringVar(&cfg.serial, "serial", "", "serial device path (auto-detected if omitted)")
	listenCmd.Flags().IntVar(&cfg.baud, "baud", cfg.baud, "baud rate")
	listenCmd.Flags().StringVar(&cfg.host, "host", cfg.host, "TCP listen address")
	listenCmd.Flags().IntVar(&cfg.dataBits, "data-bits", cfg.dataBits, "data bits (5|6|7|8)")
	listenCmd.Flags().StringVar(&cfg.parity, "parity", cfg.parity, "parity: none|odd|even")
	listenCmd.Flags().IntVar(&cfg.stopBits, "stop-bits", cfg.stopBits, "stop bits (1|2)")
	listenCmd.Flags().IntVar(&cfg.buffer, "buffer", cfg.buffer, "per-client and serial queue depth")
	listenCmd.Flags().StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "log level: debug|info|warn|error")
	listenCmd.Flags().StringVar(&cfg.logFormat, "log-format", cfg.logFormat, "log format: text|json")
	listenCmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "", "metrics/debug HTTP listen address (e.g. :9100); empty disables")
	listenCmd.Flags().BoolVar(&cfg.mdnsEnable, "mdns", false, "advertise the gateway over mDNS")
	listenCmd.Flags().StringVar(&inspectorFormat, "inspector-format", "hex", "debug inspector dump format: hex|ascii|dec")

	listenCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runListenWithConfig(cmd, cfg)
	}
	rootCmd.AddCommand(listenCmd)
}

var inspectorFormat string

func runListen(cmd *cobra.Command, args []string) error {
	return runListenWithConfig(cmd, defaultListenConfig())
}

func runListenWithConfig(cmd *cobra.Command, cfg *listenConfig) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if err := applyEnvOverrides(cfg, changed); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	logger, err := setupLogger(cfg.logFormat, cfg.logLevel)
	if err != nil {
		return err
	}

	serialPath, err := serialio.SelectPort(cfg.serial)
	if err != nil {
		return err
	}

	sup := gateway.NewSupervisor(gateway.Options{
		SerialPath:        serialPath,
		SerialConfig:      cfg.serialConfig(),
		ListenAddr:        cfg.host,
		OutboundQueueSize: cfg.buffer,
		IngressQueueSize:  cfg.buffer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- sup.Serve(ctx) }()

	if cfg.metricsAddr != "" {
		extra := map[string]http.Handler{
			"/debug/inspector": &inspector.Handler{Broker: sup.Inspector(), Format: parseDumpFormat(inspectorFormat)},
		}
		metrics.SetReadinessFunc(func() bool {
			select {
			case <-sup.Ready():
				return ctx.Err() == nil
			default:
				return false
			}
		})
		httpSrv := metrics.StartHTTP(cfg.metricsAddr, extra)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.mdnsEnable {
		go startMDNS(ctx, sup.Ready(), sup.Addr, serialPath)
	}

	logger.Info("sergw_listen", "serial", serialPath, "addr", cfg.host)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal", "signal", sig.String())
		cancel()
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := sup.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func parseDumpFormat(s string) inspector.DumpFormat {
	switch s {
	case "ascii":
		return inspector.DumpAscii
	case "dec":
		return inspector.DumpDec
	default:
		return inspector.DumpHex
	}
}
