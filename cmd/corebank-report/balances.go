package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const listPageSize = 200

type resourceRecord struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

type accountPage struct {
	NextPageToken string          `json:"next_page_token"`
	HasMore       bool            `json:"has_more"`
	Accounts      []accountRecord `json:"accounts"`
}

type accountRecord struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

type allocationPage struct {
	NextPageToken string             `json:"next_page_token"`
	HasMore       bool               `json:"has_more"`
	Allocations   []allocationRecord `json:"allocations"`
}

type allocationRecord struct {
	ID string `json:"id"`
}

type balanceRow struct {
	accountCode string
	balance     balanceReport
}

// newBalancesCmd reports every active allocation on a resource. The batch
// runs entirely over the query API, so a --as-of date makes two runs on
// the same ledgers render identical rows.
func newBalancesCmd() *cobra.Command {
	var (
		addr     string
		resource string
		asOf     string
	)

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show balances for every active allocation on a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := asOfQuery(asOf)
			if err != nil {
				return err
			}
			activeAt := asOf
			if activeAt == "" {
				activeAt = today().Format(dayLayout)
			}

			ctx := cmd.Context()
			client := newAPIClient(addr)

			res, err := resolveResource(ctx, client, resource)
			if err != nil {
				return err
			}

			accounts, err := listResourceAccounts(ctx, client, res.ID)
			if err != nil {
				return err
			}

			var rows []balanceRow
			for _, account := range accounts {
				allocations, err := listActiveAllocations(ctx, client, account.ID, activeAt)
				if err != nil {
					return err
				}
				for _, allocation := range allocations {
					var report balanceReport
					path := "/api/v1/allocations/" + url.PathEscape(allocation.ID) + "/balance"
					if err := client.getJSON(ctx, path, query, &report); err != nil {
						return fmt.Errorf("allocation %s: %w", allocation.ID, err)
					}
					rows = append(rows, balanceRow{accountCode: account.Code, balance: report})
				}
			}

			fmt.Print(formatBalancesTable(res, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "corebankd base URL (default $COREBANK_ADDR or "+defaultAddr+")")
	cmd.Flags().StringVar(&resource, "resource", "", "resource code or id (required)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default: now)")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func resolveResource(ctx context.Context, client *apiClient, key string) (resourceRecord, error) {
	var resources []resourceRecord
	if err := client.getJSON(ctx, "/api/v1/resources", nil, &resources); err != nil {
		return resourceRecord{}, err
	}
	for _, r := range resources {
		if r.Code == key || r.ID == key {
			return r, nil
		}
	}
	return resourceRecord{}, fmt.Errorf("resource %q not found", key)
}

func listResourceAccounts(ctx context.Context, client *apiClient, resourceID string) ([]accountRecord, error) {
	var accounts []accountRecord
	token := ""
	for {
		query := url.Values{}
		query.Set("resource_id", resourceID)
		query.Set("active", "true")
		query.Set("page_size", strconv.Itoa(listPageSize))
		if token != "" {
			query.Set("page_token", token)
		}

		var page accountPage
		if err := client.getJSON(ctx, "/api/v1/accounts", query, &page); err != nil {
			return nil, err
		}
		accounts = append(accounts, page.Accounts...)
		if !page.HasMore || page.NextPageToken == "" {
			return accounts, nil
		}
		token = page.NextPageToken
	}
}

func listActiveAllocations(ctx context.Context, client *apiClient, accountID, activeAt string) ([]allocationRecord, error) {
	var allocations []allocationRecord
	token := ""
	for {
		query := url.Values{}
		query.Set("account_id", accountID)
		query.Set("active_at", activeAt)
		query.Set("page_size", strconv.Itoa(listPageSize))
		if token != "" {
			query.Set("page_token", token)
		}

		var page allocationPage
		if err := client.getJSON(ctx, "/api/v1/allocations", query, &page); err != nil {
			return nil, err
		}
		allocations = append(allocations, page.Allocations...)
		if !page.HasMore || page.NextPageToken == "" {
			return allocations, nil
		}
		token = page.NextPageToken
	}
}

func formatBalancesTable(res resourceRecord, rows []balanceRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No active allocations on resource %s.\n", res.Code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resource %s (%s, %s)  as of %s\n\n",
		res.Code, res.Category, res.Unit, rows[0].balance.AsOf.Format(time.RFC3339))

	fmt.Fprintf(&b, "%-20s %-22s %-23s %12s %12s %12s %7s\n",
		"ACCOUNT", "ALLOCATION", "WINDOW", "ALLOCATED", "USED", "REMAINING", "USED%")
	b.WriteString(strings.Repeat("-", 115) + "\n")

	var allocated, used, remaining float64
	for _, row := range rows {
		window := row.balance.StartDate.Format(dayLayout) + "..." + formatWindowEnd(row.balance.EndDate)
		fmt.Fprintf(&b, "%-20s %-22s %-23s %12.2f %12.2f %12.2f %6.1f%%\n",
			row.accountCode, row.balance.AllocationID, window,
			row.balance.Allocated, row.balance.Used, row.balance.Remaining, row.balance.PercentUsed)
		allocated += row.balance.Allocated
		used += row.balance.Used
		remaining += row.balance.Remaining
	}

	var percent float64
	if allocated > 0 {
		percent = used / allocated * 100
	}
	b.WriteString(strings.Repeat("-", 115) + "\n")
	fmt.Fprintf(&b, "%-67s %12.2f %12.2f %12.2f %6.1f%%\n", "TOTAL", allocated, used, remaining, percent)
	return b.String()
}
