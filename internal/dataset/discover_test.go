package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_bank.csv", "transaction_date,transaction_type,amount,linked_pan\n2024-01-01,CREDIT,100,ABCDE1234F\n")
	writeFile(t, dir, "b_income.csv", "work_date,net_daily_income,pan_number\n2024-01-01,800,ABCDE1234F\n")
	writeFile(t, dir, "c_other_bank.csv", "transaction_date,transaction_type,amount,linked_pan\n2024-01-01,DEBIT,10,PQRSX6789L\n")
	writeFile(t, dir, "d_header_only.csv", "transaction_type,linked_pan\n")
	writeFile(t, dir, "notes.txt", "linked_pan\nABCDE1234F\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	tests := []struct {
		name string
		pan  string
		want Discovery
	}{
		{"both files", "ABCDE1234F", Discovery{BankFile: "a_bank.csv", IncomeFile: "b_income.csv"}},
		{"bank only", "PQRSX6789L", Discovery{BankFile: "c_other_bank.csv"}},
		{"unknown pan", "ZZZZZ0000Z", Discovery{}},
		{"empty pan", "", Discovery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(dir, tt.pan)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.BankFile != "" || tt.want.IncomeFile != "", got.Found())
		})
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), "ABCDE1234F")
	assert.Error(t, err)
}

func TestDiscoverRequiresMarkerColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.csv", "amount,linked_pan\n100,ABCDE1234F\n")

	got, err := Discover(dir, "ABCDE1234F")
	require.NoError(t, err)
	assert.False(t, got.Found())
}
