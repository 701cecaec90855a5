package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discovery holds the CSV files found for a PAN. Empty fields mean not found.
type Discovery struct {
	BankFile   string
	IncomeFile string
}

// Found reports whether at least one file was discovered.
func (d Discovery) Found() bool { return d.BankFile != "" || d.IncomeFile != "" }

// Discover scans the CSV files in dir in name order. A file whose first data row has
// linked_pan == pan and a transaction_type column is the bank file; one with
// pan_number == pan and a work_date column is the income file.
func Discover(dir, pan string) (Discovery, error) {
	var found Discovery
	if pan == "" {
		return found, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return found, fmt.Errorf("failed to read data dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		head, err := peek(filepath.Join(dir, e.Name()))
		if err != nil || head.Len() == 0 {
			continue
		}
		switch {
		case head.Value(0, "linked_pan") == pan && head.HasColumn("transaction_type"):
			found.BankFile = e.Name()
		case head.Value(0, "pan_number") == pan && head.HasColumn("work_date"):
			found.IncomeFile = e.Name()
		}
		if found.BankFile != "" && found.IncomeFile != "" {
			break
		}
	}
	return found, nil
}

// peek reads the header and the first data row of a CSV file.
func peek(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	cleanHeader(header)
	first, err := cr.Read()
	if err != nil {
		return New(path, header, nil), nil
	}
	return New(path, header, [][]string{first}), nil
}
