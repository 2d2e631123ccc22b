package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/proxy"
)

var (
	configPath string
	conf       *cfg.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:           "installerctl",
		Short:         "Query and drive the installer backend over the bus",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := cfg.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(c); err != nil {
				return err
			}
			cfg.Normalize(c)
			conf = c
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "/etc/installer-client/config.yaml", "path to client config")

	root.AddCommand(productsCmd(), selectCmd(), langCmd(), proposalCmd(), actionsCmd(), iscsiCmd(), watchCmd(), statusCmd())
	return root.Execute()
}

// openService builds a handle for one configured service key.
// The returned closer tears down the transport.
func openService(key string) (*proxy.Handle, func() error, error) {
	svc, ok := conf.Client.Services[key]
	if !ok {
		return nil, nil, fmt.Errorf("service %q not configured", key)
	}
	return proxy.Build(conf.Client.Bus, svc)
}
