package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"github.com/attestnet/attest/network/p2p"
)

var flagKeyOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a validator key",
	Long: `Generate a secp256k1 validator key and print its public key, to be listed in the
genesis authority set, and the peer ID the node is reachable at.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := btcec.NewPrivateKey()
		if err != nil {
			return fmt.Errorf("could not generate key: %w", err)
		}
		err = WriteKey(flagKeyOut, key)
		if err != nil {
			return err
		}

		pub := key.PubKey().SerializeCompressed()
		pid, err := p2p.PeerIDFromPublicKey(pub)
		if err != nil {
			return err
		}

		log.Info().Str("path", flagKeyOut).Msg("validator key written")
		fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\npeer id:    %s\n", hex.EncodeToString(pub), pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&flagKeyOut, "out", "o", "validator.key", "path of the key file to create")
}
