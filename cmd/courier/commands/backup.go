package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/crypto"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Store or recover an encrypted keypair backup",
	}
	cmd.AddCommand(backupStoreCmd(), backupRecoverCmd())
	return cmd
}

func backupStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store <secret>",
		Short: "Encrypt the local keypair under a secret and publish the backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Keys.BackupKeypair(cmd.Context(), client.Self(), []byte(args[0])); err != nil {
				return err
			}
			fmt.Println("backup stored")
			return nil
		},
	}
}

func backupRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover <secret>",
		Short: "Recover the keypair from its published backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := client.Keys.RecoverKeypair(cmd.Context(), client.Self(), []byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("Keypair recovered.\nFingerprint: %s\n", crypto.Fingerprint(kp.Public.Slice()))
			return nil
		},
	}
}
