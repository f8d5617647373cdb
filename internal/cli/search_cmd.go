package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyago/voyago/internal/aggregator"
	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		chatID  string
		raw     search.RawParams
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a one-shot flight search from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(log)
			if err != nil {
				return err
			}
			defer app.close()

			params, err := json.Marshal(raw)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			result, err := app.service.Execute(ctx, chatID, params)
			if err != nil {
				var inFlight *search.ErrInFlight
				if errors.As(err, &inFlight) {
					fmt.Printf("An identical search is already running (tool call %s).\n", inFlight.ToolCallID)
					return nil
				}
				var aggErr *aggregator.AggregateError
				if errors.As(err, &aggErr) && aggErr.Retryable() {
					return fmt.Errorf("%w (worth retrying)", aggErr)
				}
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "cli", "chat id for session inheritance and the audit trail")
	cmd.Flags().StringVar(&raw.Origin, "origin", "", "origin airport IATA code")
	cmd.Flags().StringVar(&raw.Destination, "destination", "", "destination airport IATA code")
	cmd.Flags().StringVar(&raw.DepartDate, "depart", "", "departure date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.ReturnDate, "return", "", "return date for round trips (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.Cabin, "cabin", "", "cabin class (economy, premium_economy, business, first)")
	cmd.Flags().IntVar(&raw.Passengers, "passengers", 0, "number of passengers (1-9)")
	cmd.Flags().BoolVar(&raw.AwardOnly, "award-only", false, "only search award availability")
	cmd.Flags().IntVar(&raw.Flexibility, "flexibility", 0, "days of date flexibility")
	cmd.Flags().BoolVar(&raw.NonStop, "non-stop", false, "only direct flights")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall search timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")

	return cmd
}

func printResult(result *domain.FlightSearchResult) {
	if len(result.Offers) == 0 {
		fmt.Println("No offers found.")
	}
	for _, o := range result.Offers {
		price := fmt.Sprintf("%.2f %s", o.Price.Amount, o.Price.Currency)
		if o.BookingType == domain.BookingAward {
			price = fmt.Sprintf("%d miles (%s)", o.Price.Miles, o.Price.Program)
		}
		stops := "non-stop"
		if n := o.Stops(); n > 0 {
			stops = fmt.Sprintf("%d stop(s)", n)
		}
		fmt.Printf("%-8s %-14s %s  %s  %dh%02dm  %s\n",
			o.Provider, price, o.Airline, stops,
			o.TotalDurationMinutes/60, o.TotalDurationMinutes%60, o.ID)
	}
	for p, e := range result.ProviderErrors {
		fmt.Printf("warning: %s failed: %s (%s)\n", p, e.Message, e.Kind)
	}
}
