package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/memogc/memogc-deploy/config"
	"github.com/memogc/memogc-deploy/flatten"
)

func main() {
	log := logrus.NewEntry(logrus.New())
	log.Logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newFlattenCmd(log).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.WithError(err).Error("flatten failed")
		os.Exit(1)
	}
}

func newFlattenCmd(log *logrus.Entry) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "flatten [contract]",
		Short: "Flatten a contract into MemoGC_flat.sol for source verification",
		Long: `Run the flatten command on a contract source (default contracts/MemoGC.sol) and
write its output to MemoGC_flat.sol at the repository root.

The command defaults to "npx hardhat flatten" and can be replaced with
MEMO_GC_FLATTEN_CMD, e.g. MEMO_GC_FLATTEN_CMD="forge flatten".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			level := logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			log.Logger.SetLevel(lvl)

			root, err := config.FindRoot(".")
			if err != nil {
				return err
			}

			contract := cfg.SourcePath("MemoGC.sol")
			if len(args) == 1 {
				contract = args[0]
			}

			out, err := flatten.New(log, root).Run(cmd.Context(), contract)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Flattened to", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")
	return cmd
}
