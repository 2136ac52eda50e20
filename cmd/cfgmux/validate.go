package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omarluq/cfgmux/internal/config"
	"github.com/omarluq/cfgmux/internal/fragment"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the master config and every declared fragment",
	Long: `Parse the master configuration and every declared fragment file without
starting the server. Reports per-fragment results; exits non-zero if the
master config is invalid or any fragment fails to parse.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "master config %s: ok (%d services)\n", configPath, len(cfg.Services))

	failed := 0
	for _, svc := range cfg.Services {
		res, err := fragment.ParseFile(svc.Name, svc.Fragment)
		switch {
		case err != nil && os.IsNotExist(err):
			fmt.Fprintf(out, "  %s: fragment file missing (%s)\n", svc.Name, svc.Fragment)
			failed++
		case err != nil:
			fmt.Fprintf(out, "  %s: INVALID: %v\n", svc.Name, err)
			failed++
		case res.Dropped > 0:
			fmt.Fprintf(out, "  %s: ok with %d dropped entries (%d routes, %d clusters)\n",
				svc.Name, res.Dropped, len(res.Routes), len(res.Clusters))
		default:
			fmt.Fprintf(out, "  %s: ok (%d routes, %d clusters)\n",
				svc.Name, len(res.Routes), len(res.Clusters))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fragments failed validation", failed, len(cfg.Services))
	}
	if len(cfg.Services) == 0 {
		return errors.New("no services declared")
	}
	return nil
}
