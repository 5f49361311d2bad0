package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Threshold-signed checkpoint and bridge message validator",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
