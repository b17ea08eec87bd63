package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/gobthome/internal/config"
	"github.com/d21d3q/gobthome/internal/monitor"
	"github.com/d21d3q/gobthome/internal/mqtt"
	"github.com/d21d3q/gobthome/internal/scanner"
)

var (
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan for BTHome advertisements and decode them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				logrus.SetLevel(cfg.Level())
			}
			return runScan(cmd.Context(), cfg)
		},
	}

	configPath string
)

func init() {
	scanCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func runScan(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scan.Timeout)
		defer cancel()
	}

	log := logrus.StandardLogger()

	var pub monitor.Publisher
	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(cfg.MQTT, log)
		defer client.Disconnect()
		go func() {
			if err := client.Connect(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("mqtt connect failed")
			}
		}()
		pub = client
	}

	handler := monitor.NewHandler(pub, cfg.Scan.DedupWindow, log)
	listener := scanner.NewListener(scanner.Options{Allow: cfg.Scan.AddressAllow, Log: log})
	err := listener.Run(ctx, handler.HandleMatch)

	stats := handler.Stats()
	log.WithFields(logrus.Fields{
		"decoded":    stats.Decoded,
		"duplicates": stats.Duplicates,
		"encrypted":  stats.Encrypted,
		"invalid":    stats.Invalid,
		"failed":     stats.Failed,
	}).Info("scan finished")
	return err
}
