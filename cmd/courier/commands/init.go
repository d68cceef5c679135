package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the local messaging keypair and publish it",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := client.Keys.GetOrCreateKeypair(client.Self())
			if err != nil {
				return err
			}
			if err := client.Keys.PublishKey(cmd.Context(), client.Self()); err != nil {
				return err
			}
			fmt.Printf("Keypair ready.\nFingerprint: %s\n", crypto.Fingerprint(kp.Public.Slice()))
			return nil
		},
	}
}
