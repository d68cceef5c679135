package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/domain"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create, unlock, join, and leave groups",
	}
	cmd.AddCommand(groupCreateCmd(), groupUnlockCmd(), groupJoinCmd(), groupLeaveCmd())
	return cmd
}

func groupCreateCmd() *cobra.Command {
	var (
		password string
		emoji    string
	)
	cmd := &cobra.Command{
		Use:   "create <name> [member...]",
		Short: "Create a group and print its invitation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members := make([]domain.Address, 0, len(args)-1)
			for _, a := range args[1:] {
				members = append(members, domain.Address(a))
			}
			g, inv, err := client.Groups.Create(cmd.Context(), client.Self(), members, args[0], emoji, password)
			if err != nil {
				return err
			}
			fmt.Printf("Group %s created.\nID: %s\nInvitation: %s\n", g.Name, g.ID, encodeInvitation(inv))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "protect the group with a password")
	cmd.Flags().StringVar(&emoji, "emoji", "", "group emoji")
	return cmd
}

func groupUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <group-id> <password>",
		Short: "Unlock a password-protected group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := client.Groups.Unlock(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("unlocked %s\n", g.Name)
			return nil
		},
	}
}

func groupJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <invitation>",
		Short: "Join a group from an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := decodeInvitation(args[0])
			if err != nil {
				return err
			}
			g, err := client.Groups.Join(cmd.Context(), client.Self(), inv)
			if err != nil {
				return err
			}
			if g.SymmetricKey == nil {
				fmt.Printf("joined %s; unlock it with the group password\n", g.Name)
				return nil
			}
			fmt.Printf("joined %s\n", g.Name)
			return nil
		},
	}
}

func groupLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <group-id>",
		Short: "Leave a group and drop its key locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Groups.Leave(cmd.Context(), args[0], client.Self()); err != nil {
				return err
			}
			fmt.Println("left")
			return nil
		},
	}
}

func encodeInvitation(inv domain.GroupInvitation) string {
	b, _ := json.Marshal(inv)
	return base64.StdEncoding.EncodeToString(b)
}

func decodeInvitation(s string) (domain.GroupInvitation, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return domain.GroupInvitation{}, fmt.Errorf("invitation is not valid base64: %w", err)
	}
	var inv domain.GroupInvitation
	if err := json.Unmarshal(b, &inv); err != nil {
		return domain.GroupInvitation{}, fmt.Errorf("invitation does not parse: %w", err)
	}
	return inv, nil
}
