package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"crediflow/internal/app"
	"crediflow/internal/dataset"
	"crediflow/internal/engine"
	"crediflow/internal/prompt"
)

var errLoadFailed = errors.New("failed to load data")

func newScoreCmd(rt *state) *cobra.Command {
	var (
		transactionsPath string
		incomePath       string
		ssi              float64
		sbi              float64
		derive           bool
		activeLoans      int
		headRows         int
		printPrompt      bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Ask the LLM for a credit score report",
		Long: `Loads the bank transactions and delivery-partner income CSV files, summarizes them
into a prompt and sends it to OpenRouter. The model's narrative report is printed.

The SSI and SBI indices default to the configured values. With --derive-indices they are
computed by the deterministic Crediflow engine from the same files.`,
		Example: `  crediflow score
  crediflow score --transactions bank.csv --income income.csv --ssi 0.7 --sbi 0.4
  crediflow score --derive-indices --active-loans 2
  crediflow score --print-prompt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg
			out := cmd.OutOrStdout()
			if transactionsPath == "" {
				transactionsPath = cfg.TransactionsPath()
			}
			if incomePath == "" {
				incomePath = cfg.IncomePath()
			}
			if !cmd.Flags().Changed("ssi") {
				ssi = cfg.SSI
			}
			if !cmd.Flags().Changed("sbi") {
				sbi = cfg.SBI
			}
			if headRows <= 0 {
				headRows = cfg.HeadRows
			}

			fmt.Fprintln(out, "Loading data...")
			transactions, income, err := dataset.LoadPair(transactionsPath, incomePath)
			if err != nil {
				rt.log.Error("failed to load csv files", "transactions", transactionsPath, "income", incomePath, "err", err)
				fmt.Fprintf(out, "Error loading CSV files: %v\n", err)
				fmt.Fprintln(out, "Failed to load data.")
				return errLoadFailed
			}

			params := prompt.Params{SSI: ssi, SBI: sbi}
			if derive {
				params = engine.Calculate(engine.Input{
					Transactions: transactions,
					Income:       income,
					ActiveLoans:  activeLoans,
				}).Params()
				rt.log.Debug("derived indices", "ssi", params.SSI, "sbi", params.SBI)
			}
			text := prompt.Build(transactions, income, params, headRows)
			if printPrompt {
				fmt.Fprint(out, text)
				return nil
			}

			client, err := rt.client()
			if err != nil {
				return err
			}
			svc := app.BuildScoring(cfg, rt.log, client, nil, nil)

			fmt.Fprintf(out, "Data loaded. Calculating credit score with %s (via OpenRouter)...\n", svc.Model())
			res := svc.Score(cmd.Context(), text)

			fmt.Fprintln(out, "\n--- Crediflow Credit Score Report ---")
			fmt.Fprintln(out)
			fmt.Fprintln(out, res.String())
			if !res.OK() {
				return fmt.Errorf("scoring failed: %s", res.Failure)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transactionsPath, "transactions", "", "Bank transactions CSV (default: $DATA_DIR/$TRANSACTIONS_FILE)")
	cmd.Flags().StringVar(&incomePath, "income", "", "Delivery-partner income CSV (default: $DATA_DIR/$INCOME_FILE)")
	cmd.Flags().Float64Var(&ssi, "ssi", 0.5, "Savings/Stability Index passed to the model")
	cmd.Flags().Float64Var(&sbi, "sbi", 0.5, "Spending/Behavior Index passed to the model")
	cmd.Flags().BoolVar(&derive, "derive-indices", false, "Compute SSI and SBI with the Crediflow engine")
	cmd.Flags().IntVar(&activeLoans, "active-loans", 0, "Active loan count used by --derive-indices")
	cmd.Flags().IntVar(&headRows, "head-rows", 0, "Rows of each dataset embedded in the prompt (default: $HEAD_ROWS)")
	cmd.Flags().BoolVar(&printPrompt, "print-prompt", false, "Print the prompt instead of calling the model")

	return cmd
}
