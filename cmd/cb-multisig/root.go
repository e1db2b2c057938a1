package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/config"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
)

// app carries state shared by subcommands once the root has loaded it.
type app struct {
	cfg    config.Config
	slog   *slog.Logger
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "cb-multisig",
		Short:         "Threshold multi-party signing coordinator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.slog = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			a.logger = logging.New(a.slog)
			return nil
		},
	}

	cmd.AddCommand(
		newVersionCmd(),
		newVerifyCmd(),
		newDigestCmd(),
		newSnapshotCmd(a),
		newSimulateCmd(a),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cb-multisig %s (%s)\n", multisig.ModuleVersion(), multisig.ModuleCommit())
			return nil
		},
	}
}
