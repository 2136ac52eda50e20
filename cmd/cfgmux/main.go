// Package main is the entry point for cfgmux.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "cfgmux.yaml"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cfgmux",
	Short: "Dynamic configuration aggregator for reverse proxies",
	Long: `cfgmux watches a master configuration file and a set of per-service routing
fragments, merges the enabled fragments into immutable snapshots, and serves
the current snapshot over an introspection API. Fragments can be toggled,
edited, or broken independently without taking the rest of the configuration
down.`,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/cfgmux/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
