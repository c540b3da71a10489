package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/memogc/memogc-deploy/config"
	"github.com/memogc/memogc-deploy/deploy"
	"github.com/memogc/memogc-deploy/framework"
)

func main() {
	log := logrus.NewEntry(logrus.New())
	log.Logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newDeployCmd(log).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.WithError(err).Error("deployment failed")
		os.Exit(1)
	}
}

func newDeployCmd(log *logrus.Entry) *cobra.Command {
	var (
		network  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the MemoGC contract",
		Long: `Deploy MemoGC with one creation transaction (gas limit 8,000,000) and wait for it to be mined.

Constructor arguments are taken from the environment (a .env file is loaded first):
  MEMO_GC_OWNER          initial owner; falls back to DEPLOYER_ADDRESS, then the deployer account
  MEMO_GC_FEE_RECIPIENT  initial fee recipient; falls back to the owner
  MEMO_GC_FEE_AMOUNT     initial fee amount; defaults to 0

The deployer account is DEPLOYER_PRIVATE_KEY. COTI_RPC_URL and COTI_TESTNET_RPC_URL
override the endpoints of coti-mainnet and coti-testnet.

Examples:
  deploy --network coti-testnet
  MEMO_GC_FEE_AMOUNT=1000 deploy --network coti-mainnet`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := setLevel(log, logLevel, cfg.LogLevel); err != nil {
				return err
			}

			n, err := cfg.Network(network)
			if err != nil {
				return err
			}
			env, err := deploy.LoadEnv()
			if err != nil {
				return err
			}
			root, err := config.FindRoot(".")
			if err != nil {
				return err
			}

			fr, err := framework.New(cmd.Context(), log, n)
			if err != nil {
				return err
			}
			defer fr.Close()

			artifact := filepath.Join(root, cfg.ArtifactPath(deploy.ContractSource, deploy.ContractName))
			_, err = deploy.NewDeployer(log.WithField("network", n.Name), fr, env, artifact).
				RunAndReport(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "network to deploy to: hardhat, coti-mainnet or coti-testnet (default hardhat)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")
	return cmd
}

func setLevel(log *logrus.Entry, flagValue, envValue string) error {
	level := flagValue
	if level == "" {
		level = envValue
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger.SetLevel(lvl)
	return nil
}
