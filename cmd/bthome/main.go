package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/gobthome/pkg/bthome"
)

var (
	rootCmd = &cobra.Command{
		Use:   "bthome [hex]",
		Short: "Decode BTHome v2 advertisement payloads",
		Long:  "bthome decodes BTHome v2 service data given as hex, or scans for live advertisements.",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runInteractive(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runDecode(cmd.OutOrStdout(), args[0])
		},
	}

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "List the known BTHome object ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCatalog(cmd.OutOrStdout(), catalogJSON)
		},
	}

	logLevel    string
	catalogJSON bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(catalogCmd, scanCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runInteractive(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	logrus.Info("bthome decode mode. Paste a hex payload and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runDecode(out, line); err != nil {
			logrus.WithError(err).Error("failed to decode payload")
		}
	}
	return scanner.Err()
}

func runDecode(out io.Writer, hex string) error {
	sd, err := bthome.ParseHex(hex)
	if err != nil {
		return err
	}
	if sd.Encrypted {
		logrus.Warn("payload is encrypted; objects were decoded without decryption")
	}
	fmt.Fprintln(out, sd.String())
	return nil
}

type catalogEntry struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Key    string  `json:"key"`
	Format string  `json:"format"`
	Width  int     `json:"width,omitempty"`
	Factor float64 `json:"factor,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

func printCatalog(out io.Writer, asJSON bool) error {
	infos := bthome.Catalog()
	if asJSON {
		entries := make([]catalogEntry, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, catalogEntry{
				ID:     fmt.Sprintf("0x%02X", uint8(info.ID)),
				Name:   info.Name,
				Key:    info.Key,
				Format: info.Format.String(),
				Width:  info.Width,
				Factor: info.Factor,
				Unit:   info.Unit,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tFACTOR\tUNIT")
	for _, info := range infos {
		format := info.Format.String()
		if info.Width > 0 {
			format = fmt.Sprintf("%s%d", format, info.Width*8)
		}
		factor := "-"
		if info.Factor != 0 {
			factor = fmt.Sprintf("%g", info.Factor)
		}
		fmt.Fprintf(tw, "0x%02X\t%s\t%s\t%s\t%s\n", uint8(info.ID), info.Name, format, factor, info.Unit)
	}
	return tw.Flush()
}
