package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/storage"
)

var iscsiAuth storage.Auth

func iscsiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iscsi",
		Short: "Inspect and drive the iSCSI initiator",
	}

	cmd.PersistentFlags().StringVar(&iscsiAuth.Username, "username", "", "CHAP username")
	cmd.PersistentFlags().StringVar(&iscsiAuth.Password, "password", "", "CHAP password")
	cmd.PersistentFlags().StringVar(&iscsiAuth.ReverseUsername, "reverse-username", "", "mutual CHAP username")
	cmd.PersistentFlags().StringVar(&iscsiAuth.ReversePassword, "reverse-password", "", "mutual CHAP password")

	cmd.AddCommand(
		iscsiInitiatorCmd(),
		iscsiNodesCmd(),
		iscsiDiscoverCmd(),
		iscsiLoginCmd(),
		iscsiLogoutCmd(),
		iscsiDeleteCmd(),
		iscsiStartupCmd(),
	)
	return cmd
}

func withISCSI(run func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		h, closer, err := openService(cfg.ServiceISCSI)
		if err != nil {
			return err
		}
		defer closer()

		c := storage.NewISCSIClient(h)
		defer c.Close()

		return run(cmd, args, c)
	}
}

func nodeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("node id %q: %w", arg, err)
	}
	return id, nil
}

func iscsiInitiatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initiator [name]",
		Short: "Print or set the initiator name",
		Args:  cobra.MaximumNArgs(1),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			if len(args) == 1 {
				return c.SetInitiatorName(cmd.Context(), args[0])
			}
			ini, err := c.GetInitiator(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(ini.Name)
			if ini.IBFT {
				fmt.Println("(from iBFT firmware)")
			}
			return nil
		}),
	}
}

func iscsiNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List discovered nodes",
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			nodes, err := c.GetNodes(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range nodes {
				state := "disconnected"
				if n.Connected {
					state = "connected"
				}
				fmt.Printf("%3d %-40s %s:%d %s startup=%s\n",
					n.ID, n.Target, n.Address, n.Port, state, n.Startup)
			}
			return nil
		}),
	}
}

func iscsiDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <address> <port>",
		Short: "Probe a portal for nodes",
		Args:  cobra.ExactArgs(2),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			port, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("port %q: %w", args[1], err)
			}
			ok, err := c.Discover(cmd.Context(), args[0], port, iscsiAuth)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("discovery on %s:%d failed", args[0], port)
			}
			fmt.Println("discovery ok")
			return nil
		}),
	}
}

func iscsiLoginCmd() *cobra.Command {
	startup := "onboot"
	cmd := &cobra.Command{
		Use:   "login <node-id>",
		Short: "Create a session with a node",
		Args:  cobra.ExactArgs(1),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			id, err := nodeID(args[0])
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), id, iscsiAuth, startup)
			if err != nil {
				return err
			}
			if res != storage.LoginSuccess {
				return fmt.Errorf("login to node %d: %s", id, res)
			}
			fmt.Println("login ok")
			return nil
		}),
	}
	cmd.Flags().StringVar(&startup, "startup", "onboot", "session startup mode")
	return cmd
}

func iscsiLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <node-id>",
		Short: "Close the session with a node",
		Args:  cobra.ExactArgs(1),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			id, err := nodeID(args[0])
			if err != nil {
				return err
			}
			ok, err := c.Logout(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("logout from node %d failed", id)
			}
			return nil
		}),
	}
}

func iscsiDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Remove a discovered node",
		Args:  cobra.ExactArgs(1),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			id, err := nodeID(args[0])
			if err != nil {
				return err
			}
			return c.DeleteNode(cmd.Context(), id)
		}),
	}
}

func iscsiStartupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "startup <node-id> <mode>",
		Short: "Set a node's startup mode",
		Args:  cobra.ExactArgs(2),
		RunE: withISCSI(func(cmd *cobra.Command, args []string, c *storage.ISCSIClient) error {
			id, err := nodeID(args[0])
			if err != nil {
				return err
			}
			return c.SetStartup(cmd.Context(), id, args[1])
		}),
	}
}
