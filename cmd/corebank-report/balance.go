package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type balanceReport struct {
	AllocationID      string             `json:"allocation_id"`
	AccountID         string             `json:"account_id"`
	Allocated         float64            `json:"allocated"`
	Used              float64            `json:"used"`
	Remaining         float64            `json:"remaining"`
	PercentUsed       float64            `json:"percent_used"`
	ChargesByCategory map[string]float64 `json:"charges_by_category"`
	AdjustmentsTotal  float64            `json:"adjustments_total"`
	StartDate         time.Time          `json:"start_date"`
	EndDate           *time.Time         `json:"end_date"`
	AsOf              time.Time          `json:"as_of"`
}

type rollupReport struct {
	RootAllocationID string          `json:"root_allocation_id"`
	Allocated        float64         `json:"allocated"`
	Used             float64         `json:"used"`
	Remaining        float64         `json:"remaining"`
	PercentUsed      float64         `json:"percent_used"`
	AllocationCount  int             `json:"allocation_count"`
	AsOf             time.Time       `json:"as_of"`
	Balances         []balanceReport `json:"balances"`
}

func newBalanceCmd() *cobra.Command {
	var (
		addr       string
		allocation string
		asOf       string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show one allocation's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := asOfQuery(asOf)
			if err != nil {
				return err
			}

			var report balanceReport
			client := newAPIClient(addr)
			path := "/api/v1/allocations/" + url.PathEscape(allocation) + "/balance"
			if err := client.getJSON(cmd.Context(), path, query, &report); err != nil {
				return err
			}

			fmt.Print(formatBalance(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "corebankd base URL (default $COREBANK_ADDR or "+defaultAddr+")")
	cmd.Flags().StringVar(&allocation, "allocation", "", "allocation id (required)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default: now)")
	_ = cmd.MarkFlagRequired("allocation")

	return cmd
}

func newRollupCmd() *cobra.Command {
	var (
		addr       string
		allocation string
		asOf       string
	)

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Show an allocation's balance rolled up with its descendants",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := asOfQuery(asOf)
			if err != nil {
				return err
			}

			var report rollupReport
			client := newAPIClient(addr)
			path := "/api/v1/allocations/" + url.PathEscape(allocation) + "/rollup"
			if err := client.getJSON(cmd.Context(), path, query, &report); err != nil {
				return err
			}

			fmt.Print(formatRollup(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "corebankd base URL (default $COREBANK_ADDR or "+defaultAddr+")")
	cmd.Flags().StringVar(&allocation, "allocation", "", "root allocation id (required)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default: now)")
	_ = cmd.MarkFlagRequired("allocation")

	return cmd
}

func asOfQuery(asOf string) (url.Values, error) {
	query := url.Values{}
	if asOf == "" {
		return query, nil
	}
	if _, err := time.Parse(dayLayout, asOf); err != nil {
		return nil, fmt.Errorf("invalid --as-of date (use YYYY-MM-DD): %w", err)
	}
	query.Set("as_of", asOf)
	return query, nil
}

func formatBalance(r balanceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Allocation %s  account %s\n", r.AllocationID, r.AccountID)
	fmt.Fprintf(&b, "Window %s .. %s  as of %s\n\n",
		r.StartDate.Format(dayLayout), formatWindowEnd(r.EndDate),
		r.AsOf.Format(time.RFC3339))

	fmt.Fprintf(&b, "%14s %14s %14s %8s\n", "ALLOCATED", "USED", "REMAINING", "USED%")
	fmt.Fprintf(&b, "%14.2f %14.2f %14.2f %7.1f%%\n\n", r.Allocated, r.Used, r.Remaining, r.PercentUsed)

	fmt.Fprintf(&b, "%-15s %14s\n", "LEDGER", "CHARGES")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, source := range sortedKeys(r.ChargesByCategory) {
		fmt.Fprintf(&b, "%-15s %14.2f\n", source, r.ChargesByCategory[source])
	}
	fmt.Fprintf(&b, "%-15s %14.2f\n", "adjustments", r.AdjustmentsTotal)
	return b.String()
}

func formatRollup(r rollupReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rollup for allocation %s  (%d allocations)  as of %s\n\n",
		r.RootAllocationID, r.AllocationCount, r.AsOf.Format(time.RFC3339))

	fmt.Fprintf(&b, "%-22s %-22s %14s %14s %14s %8s\n",
		"ALLOCATION", "ACCOUNT", "ALLOCATED", "USED", "REMAINING", "USED%")
	b.WriteString(strings.Repeat("-", 99) + "\n")
	for i, balance := range r.Balances {
		id := balance.AllocationID
		if i == 0 {
			id += " (root)"
		}
		fmt.Fprintf(&b, "%-22s %-22s %14.2f %14.2f %14.2f %7.1f%%\n",
			id, balance.AccountID,
			balance.Allocated, balance.Used, balance.Remaining, balance.PercentUsed)
	}
	b.WriteString(strings.Repeat("-", 99) + "\n")
	fmt.Fprintf(&b, "%-45s %14.2f %14.2f %14.2f %7.1f%%\n",
		"TOTAL", r.Allocated, r.Used, r.Remaining, r.PercentUsed)
	return b.String()
}

func formatWindowEnd(end *time.Time) string {
	if end == nil {
		return "open"
	}
	return end.Format(dayLayout)
}
