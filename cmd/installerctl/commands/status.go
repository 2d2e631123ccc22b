package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/status"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe every configured service and report readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			open := func(svc cfg.ServiceConfig) (*proxy.Handle, func() error, error) {
				return proxy.Build(conf.Client.Bus, svc)
			}

			var failed bool
			for _, s := range status.Probe(cmd.Context(), conf.Client.Services, open) {
				if s.Err != nil {
					failed = true
					fmt.Printf("%-18s %-8s %s (%v)\n", s.Service, s.State, s.Interface, s.Err)
					continue
				}
				fmt.Printf("%-18s %-8s %s\n", s.Service, s.State, s.Interface)
			}
			if failed {
				return fmt.Errorf("one or more services are unavailable")
			}
			return nil
		},
	}
}
