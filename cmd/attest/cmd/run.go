package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/attestnet/attest/config"
	"github.com/attestnet/attest/engine/bridge"
	"github.com/attestnet/attest/module/util"
)

// shutdownTimeout bounds the graceful shutdown after a termination signal.
const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a validator node",
	Long: `Run a validator node. The node joins the gossip network, endorses checkpoints and
bridge messages with its validator key and submits finalized artifacts to the ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		level, _ := zerolog.ParseLevel(conf.LogLevel)
		log = log.Level(level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		node, err := NewNode(ctx, log, conf, bridge.NoOpConnector{})
		if err != nil {
			return err
		}

		err = util.WaitClosed(ctx, node.Ready())
		if err == nil {
			log.Info().Str("peer_id", node.Network.Node().ID().String()).Msg("node startup complete")
			<-ctx.Done()
		}
		stop()

		log.Info().Msg("node shutting down")
		timeout, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = util.WaitClosed(timeout, node.Done())
		if err != nil {
			log.Error().Err(err).Msg("node shutdown aborted")
			return err
		}
		log.Info().Msg("node shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	config.InitializeFlags(runCmd.Flags(), config.DefaultConfig())
}
