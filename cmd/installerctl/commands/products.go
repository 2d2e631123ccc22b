package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/software"
)

func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List installable base products and the selected one",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceSoftware)
			if err != nil {
				return err
			}
			defer closer()

			c := software.New(h)
			defer c.Close()

			ctx := cmd.Context()
			products, err := c.GetProducts(ctx)
			if err != nil {
				return err
			}
			selected, err := c.GetSelectedProduct(ctx)
			if err != nil {
				return err
			}

			for _, p := range products {
				marker := " "
				if p.ID == selected {
					marker = "*"
				}
				fmt.Printf("%s %-16s %s\n", marker, p.ID, p.Name)
			}
			return nil
		},
	}
}

// select <product-id>: select the base product to install.
func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <product-id>",
		Short: "Select the base product to install",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceSoftware)
			if err != nil {
				return err
			}
			defer closer()

			c := software.New(h)
			defer c.Close()

			if err := c.SelectProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("selected", args[0])
			return nil
		},
	}
}

// lang [locale]: print the backend UI language, or set it.
func langCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lang [locale]",
		Short: "Print or set the backend UI language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceSoftware)
			if err != nil {
				return err
			}
			defer closer()

			c := software.New(h)
			defer c.Close()

			ctx := cmd.Context()
			if len(args) == 0 {
				lang, err := c.GetUILanguage(ctx)
				if err != nil {
					return err
				}
				fmt.Println(lang)
				return nil
			}

			ok, err := c.SetUILanguage(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("backend rejected language %q", args[0])
			}
			return nil
		},
	}
}
