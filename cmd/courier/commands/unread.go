package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func unreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Print unread counts per conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := client.Unread.Counts()
			if len(counts) == 0 {
				fmt.Println("no unread messages")
				return nil
			}
			ids := make([]string, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("%s: %d\n", id, counts[id])
			}
			return nil
		},
	}
}
