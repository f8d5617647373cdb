package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show voyago status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Voyago %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:   %s\n", paths.Config)
			fmt.Printf("Database: %s\n", paths.DB)
			fmt.Printf("Logs:     %s\n\n", paths.Logs)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			fmt.Printf("Gateway:      %s:%d (auth %s)\n",
				cfg.Gateway.Bind, cfg.Gateway.Port, onOff(cfg.Gateway.Auth.Token != ""))
			fmt.Printf("Award policy: %s\n", cfg.Providers.AwardPolicy)
			fmt.Printf("Sort by:      %s\n", cfg.Search.SortBy)
			fmt.Println("Providers:")
			fmt.Printf("  seats:    %s\n", onOff(cfg.Providers.Seats.Enabled))
			fmt.Printf("  amadeus:  %s (%s)\n", onOff(cfg.Providers.Amadeus.Enabled), cfg.Providers.Amadeus.Environment)
			fmt.Printf("  duffel:   %s\n", onOff(cfg.Providers.Duffel.Enabled))

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Printf("\n%d config issue(s) — run `voyago config check`\n", len(issues))
			}
			return nil
		},
	}
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
