package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	applog "spendlog/internal/log"
	"spendlog/internal/spot"
	"spendlog/internal/view"
)

var errLookupFailed = errors.New("lookup failed")

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME AMOUNT CATEGORY",
		Short: "Append an expense to the log",
		Example: `  spendlog-cli add Coffee 3.50 Food
  spendlog-cli --backend sqlite add Refund -5 Food`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			e, err := s.Add(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("save expense: %w", err)
			}
			line := view.RenderLog(s.Snapshot())[s.Len()-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", line.Index, line.Text())
			a.logger(cmd).Debug("Expense added", applog.NewFields().WithExpense(e).ToSlice()...)
			return nil
		},
	}
	// flags end at NAME so a negative AMOUNT is read as an argument
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the expense log and the total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			board := view.NewBoard()
			board.Render(s.Snapshot())
			out := cmd.OutOrStdout()
			lines := board.Log()
			if len(lines) == 0 {
				fmt.Fprintln(out, "No expenses yet.")
				return nil
			}
			for _, l := range lines {
				fmt.Fprintf(out, "[%d] %s\n", l.Index, l.Text())
			}
			fmt.Fprintf(out, "Total: $%s\n", board.Total())
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Remove the expense at INDEX as shown by list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid index %q", args[0])
			}
			s, closeFn, err := a.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			removed, err := s.DeleteAt(cmd.Context(), index)
			if err != nil {
				return fmt.Errorf("save expenses: %w", err)
			}
			if !removed {
				return fmt.Errorf("no expense at index %d", index)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d, %d left\n", index, s.Len())
			return nil
		},
	}
}

func newChartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Print spending per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			board := view.NewBoard()
			board.Render(s.Snapshot())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, view.ChartLabel)
			for _, b := range board.Chart().Bars() {
				fmt.Fprintf(out, "%-16s %10s %s\n", b.Label, "$"+b.Amount, strings.Repeat("#", b.Width/5))
			}
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, r view.Result) error {
	for _, line := range r.Lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	if r.Error {
		return errLookupFailed
	}
	return nil
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT CURRENCY",
		Short: "Convert a USD amount into CURRENCY",
		Example: `  spendlog-cli convert 100 EUR
  spendlog-cli convert -- -20 JPY`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := applog.NewContext(cmd.Context(), a.logger(cmd))
			return printResult(cmd, a.converter().Render(ctx, args[0], args[1]))
		},
	}
}

func newCryptoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crypto SYMBOL",
		Short: "Show the USD spot price of SYMBOL and what the logged total buys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := applog.NewContext(cmd.Context(), a.logger(cmd))
			return printResult(cmd, spot.NewLookup(a.spotClient(), s).Render(ctx, args[0]))
		},
	}
}
