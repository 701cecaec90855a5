package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"crediflow/internal/models"
)

func newModelsCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List the Gemini models available to GEMINI_API_KEY",
		Example: `  GEMINI_API_KEY=... crediflow models`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Starting list...")

			src, closeSrc, err := rt.modelSource(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Error listing models: %v\n", err)
				return fmt.Errorf("failed to list models: %w", err)
			}
			defer func() {
				if err := closeSrc(); err != nil {
					rt.log.Warn("failed to close gemini client", "err", err)
				}
			}()

			n, err := models.Lister{Source: src}.Run(cmd.Context(), out)
			rt.log.Debug("models listed", "count", n)
			return err
		},
	}
}
