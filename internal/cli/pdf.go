package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"crediflow/internal/pdftext"
)

func newPDFCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf [path]",
		Short: "Extract the text of a PDF statement",
		Long: `Reads every page of a PDF in order and prints the concatenated text, one newline
after each page. Scanned or image-only documents produce no text.`,
		Example: `  crediflow pdf
  crediflow pdf ./statements/march.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := rt.cfg.DataPath(rt.cfg.PDFFile)
			if len(args) == 1 {
				path = args[0]
			}

			fmt.Fprintln(out, "Starting PDF extraction...")
			text, err := pdftext.Extract(path)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "File not found: %s\n", path)
				return fmt.Errorf("file not found: %s", path)
			}
			if err != nil {
				rt.log.Error("pdf extraction failed", "path", path, "err", err)
				fmt.Fprintf(out, "Error: %v\n", err)
				return err
			}

			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(out, "No text extracted. The PDF might be scanned/image-based.")
				return nil
			}
			fmt.Fprintln(out, "Extracted Text:")
			fmt.Fprintln(out, text)
			return nil
		},
	}
}
