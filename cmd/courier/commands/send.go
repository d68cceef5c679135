package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// send <peer-or-group> <message>: encrypt and send to a peer or group.
func sendCmd() *cobra.Command {
	var groupID string
	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a direct or group message",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, text, err := resolveConversation(cmd, groupID, args)
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("message text required")
			}
			msg, err := client.Messages.Send(cmd.Context(), conv, text)
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", msg.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "send to a group instead of a peer")
	return cmd
}
