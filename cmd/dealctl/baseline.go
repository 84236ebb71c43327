package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (c *cli) baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage reference fares used to measure discounts",
	}

	set := &cobra.Command{
		Use:     "set <origin> <dest> <YYYY-MM> <price>",
		Short:   "Set the reference fare for a route month",
		Example: "  dealctl baseline set MSP CUN 2026-03 2000",
		Args:    cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			origin, dest := strings.ToUpper(args[0]), strings.ToUpper(args[1])
			if err := c.locked(func() error { return c.app.Store.SetBaseline(origin, dest, args[2], price) }); err != nil {
				return err
			}
			return c.emit(fmt.Sprintf("Baseline %s-%s %s set to $%.0f", origin, dest, args[2], price),
				map[string]any{"success": true, "origin": origin, "dest": dest, "month": args[2], "price": price})
		},
	}

	get := &cobra.Command{
		Use:   "get <origin> <dest> <YYYY-MM>",
		Short: "Show the reference fare for a route month",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			origin, dest := strings.ToUpper(args[0]), strings.ToUpper(args[1])
			price, ok, err := c.app.Store.Baseline(origin, dest, args[2])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no baseline for %s-%s %s", origin, dest, args[2])
			}
			return c.emit(fmt.Sprintf("$%.0f", price), map[string]any{"origin": origin, "dest": dest, "month": args[2], "price": price})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every reference fare",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			all, err := c.app.Store.Baselines()
			if err != nil {
				return err
			}
			var b strings.Builder
			for _, k := range sortedKeys(all) {
				fmt.Fprintf(&b, "%s: $%.0f\n", k, all[k])
			}
			return c.emit(strings.TrimRight(b.String(), "\n"), all)
		},
	}

	cmd.AddCommand(set, get, list)
	return cmd
}

func sortedKeys(m map[string]float64) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
