package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/domain"
)

// history <peer>: print the reconciled timeline for a conversation.
func historyCmd() *cobra.Command {
	var (
		groupID string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "history [peer]",
		Short: "Print a conversation's reconciled timeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, _, err := resolveConversation(cmd, groupID, args)
			if err != nil {
				return err
			}
			msgs, err := client.Messages.Messages(cmd.Context(), conv, refresh)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				marker := ""
				if m.UsedLegacyKey {
					marker = " (legacy key)"
				}
				fmt.Printf("%s [%s]%s %s\n", m.SentAt.Local().Format("2006-01-02 15:04"), m.Sender, marker, m.Content)
			}
			if err := client.Unread.MarkAsRead(cmd.Context(), conv.ID); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "show a group conversation instead of a DM")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch from the backing store even when cached")
	return cmd
}

// resolveConversation turns the command line into a conversation handle: a
// group when --group is set, otherwise a DM with the peer argument. The
// remaining positional argument, if any, is returned as the message text.
func resolveConversation(cmd *cobra.Command, groupID string, args []string) (domain.Conversation, string, error) {
	if groupID != "" {
		conv, err := client.GroupConversation(groupID)
		if err != nil {
			return domain.Conversation{}, "", err
		}
		text := ""
		if len(args) > 0 {
			text = args[len(args)-1]
		}
		return conv, text, nil
	}
	if len(args) == 0 {
		return domain.Conversation{}, "", fmt.Errorf("peer address required (or --group)")
	}
	conv := client.DMConversation(cmd.Context(), domain.Address(args[0]))
	text := ""
	if len(args) > 1 {
		text = args[1]
	}
	return conv, text, nil
}
