package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"crediflow/internal/logger"
)

// newLogger writes to the command's stderr so results on stdout stay clean.
func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), level)
}
