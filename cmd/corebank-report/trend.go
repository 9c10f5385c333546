package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type trendDay struct {
	Date              time.Time          `json:"date"`
	ChargesByCategory map[string]float64 `json:"charges_by_category"`
	TotalCharges      float64            `json:"total_charges"`
}

func newTrendCmd() *cobra.Command {
	var (
		addr     string
		account  string
		category string
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show an account's day-by-day charges over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDay, endDay, err := resolveWindow(start, end)
			if err != nil {
				return err
			}

			query := url.Values{}
			query.Set("start_date", startDay.Format(dayLayout))
			query.Set("end_date", endDay.Format(dayLayout))
			if category != "" {
				query.Set("category", category)
			}

			var days []trendDay
			client := newAPIClient(addr)
			path := "/api/v1/accounts/" + url.PathEscape(account) + "/trend"
			if err := client.getJSON(cmd.Context(), path, query, &days); err != nil {
				return err
			}

			fmt.Print(formatTrendTable(days))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "corebankd base URL (default $COREBANK_ADDR or "+defaultAddr+")")
	cmd.Flags().StringVar(&account, "account", "", "account id (required)")
	cmd.Flags().StringVar(&category, "category", "", "override the account's resource category")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default: start of month)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD, default: today)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func formatTrendTable(days []trendDay) string {
	if len(days) == 0 {
		return "No usage found.\n"
	}

	// The series is zero-filled, so every day carries the same ledger keys.
	sources := sortedKeys(days[0].ChargesByCategory)

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s", "DATE")
	for _, source := range sources {
		fmt.Fprintf(&b, " %14s", strings.ToUpper(source))
	}
	fmt.Fprintf(&b, " %14s\n", "TOTAL")
	width := 12 + 15*(len(sources)+1)
	b.WriteString(strings.Repeat("-", width) + "\n")

	var total float64
	for _, day := range days {
		fmt.Fprintf(&b, "%-12s", day.Date.Format(dayLayout))
		for _, source := range sources {
			fmt.Fprintf(&b, " %14.2f", day.ChargesByCategory[source])
		}
		fmt.Fprintf(&b, " %14.2f\n", day.TotalCharges)
		total += day.TotalCharges
	}
	b.WriteString(strings.Repeat("-", width) + "\n")
	fmt.Fprintf(&b, "%-12s %*s\n", "TOTAL", width-13, fmt.Sprintf("%.2f", total))
	return b.String()
}
