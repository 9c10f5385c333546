package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type usageReport struct {
	AccountID           string             `json:"account_id"`
	Category            string             `json:"category"`
	StartDate           time.Time          `json:"start_date"`
	EndDate             time.Time          `json:"end_date"`
	ChargesByCategory   map[string]float64 `json:"charges_by_category"`
	TotalCharges        float64            `json:"total_charges"`
	AdjustmentsTotal    float64            `json:"adjustments_total"`
	IncludesAdjustments bool               `json:"includes_adjustments"`
}

func newUsageCmd() *cobra.Command {
	var (
		addr          string
		account       string
		category      string
		start         string
		end           string
		noAdjustments bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show an account's charge breakdown over a date range",
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
			if noAdjustments {
				query.Set("include_adjustments", "false")
			}

			var report usageReport
			client := newAPIClient(addr)
			path := "/api/v1/accounts/" + url.PathEscape(account) + "/usage"
			if err := client.getJSON(cmd.Context(), path, query, &report); err != nil {
				return err
			}

			fmt.Print(formatUsageTable(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "corebankd base URL (default $COREBANK_ADDR or "+defaultAddr+")")
	cmd.Flags().StringVar(&account, "account", "", "account id (required)")
	cmd.Flags().StringVar(&category, "category", "", "override the account's resource category")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default: start of month)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&noAdjustments, "no-adjustments", false, "report raw ledger charges without adjustments")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func formatUsageTable(r usageReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Account %s  category=%s  %s .. %s\n\n",
		r.AccountID, r.Category,
		r.StartDate.Format(dayLayout), r.EndDate.Format(dayLayout))

	fmt.Fprintf(&b, "%-15s %14s\n", "LEDGER", "CHARGES")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, source := range sortedKeys(r.ChargesByCategory) {
		fmt.Fprintf(&b, "%-15s %14.2f\n", source, r.ChargesByCategory[source])
	}
	if r.IncludesAdjustments {
		fmt.Fprintf(&b, "%-15s %14.2f\n", "adjustments", r.AdjustmentsTotal)
	}
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "%-15s %14.2f\n", "TOTAL", r.TotalCharges)
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
