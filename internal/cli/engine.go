package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"crediflow/internal/app"
	"crediflow/internal/dataset"
	"crediflow/internal/engine"
)

func newEngineCmd(rt *state) *cobra.Command {
	var (
		pan    string
		email  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Compute the deterministic Crediflow score",
		Long: `Runs the Crediflow engine locally, without any network call.

With --pan or --email the user's files are discovered in the data directory and the
active loans come from the loans registry. Otherwise the default transactions and
income files are scored with no active loans.`,
		Example: `  crediflow engine
  crediflow engine --pan ABCDE1234F
  crediflow engine --email rahul@gmail.com --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := engineInput(cmd, rt, pan, email)
			if err != nil {
				return err
			}
			score := engine.Calculate(in)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(score)
			}
			fmt.Fprintln(out, score.Analysis)
			return nil
		},
	}

	cmd.Flags().StringVar(&pan, "pan", "", "PAN of the user to score")
	cmd.Flags().StringVar(&email, "email", "", "Email of the user to score, used when the PAN finds no files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print every index as JSON")

	return cmd
}

func engineInput(cmd *cobra.Command, rt *state, pan, email string) (engine.Input, error) {
	if pan == "" && email == "" {
		tx, inc, err := dataset.LoadPair(rt.cfg.TransactionsPath(), rt.cfg.IncomePath())
		if err != nil {
			return engine.Input{}, fmt.Errorf("failed to load data: %w", err)
		}
		return engine.Input{Transactions: tx, Income: inc}, nil
	}

	profiles, err := app.BuildProfiles(rt.cfg, rt.log)
	if err != nil {
		return engine.Input{}, err
	}
	res, err := profiles.Resolve(cmd.Context(), email, pan)
	if err != nil {
		return engine.Input{}, err
	}
	return engine.Input{
		Transactions: res.Transactions,
		Income:       res.Income,
		ActiveLoans:  res.User.ActiveLoans(),
	}, nil
}
