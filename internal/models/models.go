// Package models enumerates the models exposed by the Gemini API.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
)

const generateContent = "generateContent"

// Model is the subset of model metadata the lister prints.
type Model struct {
	Name    string
	Methods []string
}

// SupportsGenerateContent reports whether the model can be used for text generation.
func (m Model) SupportsGenerateContent() bool {
	return slices.Contains(m.Methods, generateContent)
}

// Source yields models one at a time until exhausted or visit returns an error.
type Source interface {
	Models(ctx context.Context, visit func(Model) error) error
}

// Lister prints every model of a Source.
type Lister struct {
	Source Source
}

// Run writes one "Model: <name>" line per model, followed by a capability
// line when the model supports generateContent. It returns how many models
// were listed. Enumeration errors are printed and returned.
func (l Lister) Run(ctx context.Context, w io.Writer) (int, error) {
	if l.Source == nil {
		err := errors.New("no model source configured")
		fmt.Fprintf(w, "Error listing models: %v\n", err)
		return 0, err
	}

	count := 0
	err := l.Source.Models(ctx, func(m Model) error {
		count++
		if _, err := fmt.Fprintf(w, "Model: %s\n", m.Name); err != nil {
			return err
		}
		if m.SupportsGenerateContent() {
			if _, err := fmt.Fprintln(w, "  -> Supports generateContent"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(w, "Error listing models: %v\n", err)
		return count, fmt.Errorf("failed to list models: %w", err)
	}
	return count, nil
}
