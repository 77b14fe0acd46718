package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
)

var convertCmd = &cobra.Command{
	Use:     "convert <amount> <from> <to>",
	Short:   "Convert an amount between two currencies of the policy",
	Example: `  server convert 400 USD MMK`,
	Args:    cobra.ExactArgs(3),
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	from := generic.CurrencyCode(strings.ToUpper(args[1]))
	to := generic.CurrencyCode(strings.ToUpper(args[2]))

	policy, err := factory.NewPolicyFactory().LoadFile(cfg.App.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	result, err := policy.Rates.Convert(amount, from, to)
	if err != nil {
		return err
	}
	target, err := policy.Rates.Lookup(to)
	if err != nil {
		return err
	}

	fmt.Println(currency.Format(result, target, 2))
	return nil
}
