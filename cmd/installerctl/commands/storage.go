package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/storage"
)

func proposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal",
		Short: "Print the storage proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceStorageProposal)
			if err != nil {
				return err
			}
			defer closer()

			c := storage.NewProposalClient(h)
			defer c.Close()

			p, err := c.GetProposal(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("available devices:")
			for _, d := range p.AvailableDevices {
				fmt.Printf("  %-12s %s\n", d.ID, d.Label)
			}
			fmt.Println("candidate devices:", strings.Join(p.CandidateDevices, ", "))
			fmt.Println("lvm:", p.LVM)
			return nil
		},
	}
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "Print the planned storage actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceStorageActions)
			if err != nil {
				return err
			}
			defer closer()

			c := storage.NewActionsClient(h)
			defer c.Close()

			actions, err := c.GetActions(cmd.Context())
			if err != nil {
				return err
			}

			for _, a := range actions {
				var tags []string
				if a.Delete {
					tags = append(tags, "delete")
				}
				if a.Subvol {
					tags = append(tags, "subvolume")
				}
				if len(tags) > 0 {
					fmt.Printf("%s [%s]\n", a.Text, strings.Join(tags, ", "))
				} else {
					fmt.Println(a.Text)
				}
			}
			return nil
		},
	}
}
