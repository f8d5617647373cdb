package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/voyago/voyago/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigCheckCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file merged with defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			// secrets stay out of terminal scrollback
			cfg.Gateway.Auth.Token = redact(cfg.Gateway.Auth.Token)
			cfg.Providers.Seats.PartnerKey = redact(cfg.Providers.Seats.PartnerKey)
			cfg.Providers.Amadeus.ClientSecret = redact(cfg.Providers.Amadeus.ClientSecret)
			cfg.Providers.Duffel.APIKey = redact(cfg.Providers.Duffel.APIKey)

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(paths.Config)
		},
	}
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and report issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			issues := config.Validate(&cfg)
			if len(issues) == 0 {
				fmt.Println("Configuration OK.")
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("%s: %s\n", issue.Path, issue.Message)
			}
			return fmt.Errorf("%d issue(s) found", len(issues))
		},
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "<redacted>"
}
