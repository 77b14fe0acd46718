package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/currency"
	"github.com/warp/payroll-engine/generic"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List finalized payroll runs with totals",
	Example: `  # Totals in the canonical currency
  server runs

  # Totals converted to US dollars
  server runs --currency USD`,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().String("currency", "", "Show totals in this currency (default: canonical)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	canonical := a.policy.Engine.Canonical()
	code, _ := cmd.Flags().GetString("currency")
	target := canonical
	if code != "" {
		target = generic.CurrencyCode(code)
	}
	cur, err := a.policy.Rates.Lookup(target)
	if err != nil {
		return err
	}

	totals, err := a.ledger.Trend(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(totals) == 0 {
		fmt.Println("No finalized payroll runs.")
		return nil
	}

	convert := func(v generic.Money) (string, error) {
		out, err := a.policy.Rates.ConvertMoney(v, target)
		if err != nil {
			return "", err
		}
		return currency.Format(out.Value, cur, 0), nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PERIOD\tEMPLOYEES\tGROSS\tTAX\tDEDUCTIONS\tNET\t")
	for _, t := range totals {
		cols := make([]string, 0, 4)
		for _, v := range []generic.Money{
			{Value: t.GrossPay, Currency: canonical},
			{Value: t.Tax, Currency: canonical},
			{Value: t.TotalDeductions, Currency: canonical},
			{Value: t.NetPay, Currency: canonical},
		} {
			s, err := convert(v)
			if err != nil {
				return err
			}
			cols = append(cols, s)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t\n", t.Period, t.Headcount, cols[0], cols[1], cols[2], cols[3])
	}
	return w.Flush()
}
