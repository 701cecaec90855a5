package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crediflow/internal/config"
	"crediflow/internal/llm"
	"crediflow/internal/logger"
	"crediflow/internal/models"
)

const bankCSV = `transaction_date,transaction_type,amount,category,linked_pan
2024-01-05,CREDIT,30000,Salary,ABCDE1234F
2024-01-10,DEBIT,5000,Loan EMI,ABCDE1234F
2024-01-15,DEBIT,2000,Entertainment,ABCDE1234F
2024-01-20,DEBIT,3000,Rent,ABCDE1234F
2024-02-05,CREDIT,30000,Salary,ABCDE1234F
2024-02-10,DEBIT,5000,Loan EMI,ABCDE1234F
2024-02-12,DEBIT,40000,Savings Transfer,ABCDE1234F
`

const incomeCSV = `work_date,net_daily_income,fuel_expense,pan_number
2024-01-01,1000,200,ABCDE1234F
2024-01-02,1000,200,ABCDE1234F
2024-02-01,800,100,ABCDE1234F
2024-02-02,1200,100,ABCDE1234F
`

const loansYAML = `users:
  - pan: ABCDE1234F
    name: Rahul Sharma
    email: rahul@gmail.com
    loans:
      - type: Two Wheeler Loan
        status: Active
      - type: Kisan Credit Card
        status: Paid
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("bank.csv", bankCSV)
	write("income.csv", incomeCSV)
	write("loans.yaml", loansYAML)

	return config.Config{
		DataDir:          dir,
		TransactionsFile: "bank.csv",
		IncomeFile:       "income.csv",
		ProfilesFile:     "user_profiles.csv",
		LoansFile:        "loans.yaml",
		PDFFile:          "statement.pdf",
		SSI:              0.5,
		SBI:              0.5,
		HeadRows:         10,
		LLMProvider:      "openrouter",
		LLMModel:         "google/gemini-2.0-flash-001",
	}
}

func run(t *testing.T, cfg config.Config, args []string, opts ...Option) (string, error) {
	t.Helper()
	opts = append([]Option{WithConfig(cfg, logger.Discard())}, opts...)
	root := NewRootCmd(opts...)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	cfg := testConfig(t)
	client := new(llm.MockClient)
	client.On("Model").Return("google/gemini-2.0-flash-001")
	client.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "SSI (Savings/Stability Index?): 0.7")
	})).Return("Credit score: 712.", nil).Once()

	out, err := run(t, cfg, []string{"score", "--ssi", "0.7"}, WithLLM(client))
	require.NoError(t, err)

	assert.Contains(t, out, "Loading data...\n")
	assert.Contains(t, out, "Data loaded. Calculating credit score with google/gemini-2.0-flash-001 (via OpenRouter)...\n")
	assert.Contains(t, out, "\n--- Crediflow Credit Score Report ---\n\nCredit score: 712.\n")
	client.AssertExpectations(t)
}

func TestScoreCommandMissingCredential(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, []string{"score"}, WithLLM(nil))
	require.Error(t, err)

	assert.Contains(t, out, "Cannot calculate: Missing OpenRouter API Key/Client.")
	assert.Contains(t, out, "(via OpenRouter)")
}

func TestScoreCommandRemoteError(t *testing.T) {
	cfg := testConfig(t)
	client := new(llm.MockClient)
	client.On("Model").Return("m")
	client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	out, err := run(t, cfg, []string{"score"}, WithLLM(client))
	require.Error(t, err)
	assert.Contains(t, out, "Error communicating with OpenRouter: connection refused")
}

func TestScoreCommandMissingFile(t *testing.T) {
	cfg := testConfig(t)
	client := new(llm.MockClient)

	out, err := run(t, cfg, []string{"score", "--income", filepath.Join(cfg.DataDir, "absent.csv")}, WithLLM(client))
	require.ErrorIs(t, err, errLoadFailed)

	assert.Contains(t, out, "Failed to load data.")
	assert.NotContains(t, out, "Data loaded.")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestScoreCommandPrintPrompt(t *testing.T) {
	cfg := testConfig(t)
	client := new(llm.MockClient)

	out, err := run(t, cfg, []string{"score", "--print-prompt", "--derive-indices", "--active-loans", "1"}, WithLLM(client))
	require.NoError(t, err)

	assert.Contains(t, out, "You are a credit scoring expert.")
	assert.Contains(t, out, "SSI (Savings/Stability Index?): 1\n")
	assert.Contains(t, out, "Transaction Data Head:")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestPDFCommand(t *testing.T) {
	cfg := testConfig(t)

	t.Run("missing file", func(t *testing.T) {
		out, err := run(t, cfg, []string{"pdf", filepath.Join(cfg.DataDir, "absent.pdf")})
		require.Error(t, err)
		assert.Contains(t, out, "Starting PDF extraction...\n")
		assert.Contains(t, out, "File not found: ")
	})

	t.Run("default path", func(t *testing.T) {
		out, err := run(t, cfg, []string{"pdf"})
		require.Error(t, err)
		assert.Contains(t, out, "File not found: "+filepath.Join(cfg.DataDir, "statement.pdf"))
	})

	t.Run("not a pdf", func(t *testing.T) {
		path := filepath.Join(cfg.DataDir, "bank.csv")
		out, err := run(t, cfg, []string{"pdf", path})
		require.Error(t, err)
		assert.Contains(t, out, "Error: ")
	})
}

func TestModelsCommand(t *testing.T) {
	cfg := testConfig(t)
	src := new(models.MockSource)
	src.On("Models", mock.Anything).Return([]models.Model{
		{Name: "models/gemini-2.0-flash", Methods: []string{"generateContent", "countTokens"}},
		{Name: "models/text-embedding-004", Methods: []string{"embedContent"}},
	}, nil)

	out, err := run(t, cfg, []string{"models"}, WithModelSource(src))
	require.NoError(t, err)

	assert.Equal(t, "Starting list...\n"+
		"Model: models/gemini-2.0-flash\n"+
		"  -> Supports generateContent\n"+
		"Model: models/text-embedding-004\n", out)
}

func TestModelsCommandMissingKey(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, []string{"models"})
	require.Error(t, err)
	assert.Contains(t, out, "Error listing models: ")
}

func TestEngineCommand(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default files", []string{"engine"}, "Crediflow Score: 590."},
		{"by pan", []string{"engine", "--pan", "ABCDE1234F"}, "Crediflow Score: 623."},
		{"by email", []string{"engine", "--email", "rahul@gmail.com"}, "Crediflow Score: 623."},
		{"json", []string{"engine", "--pan", "ABCDE1234F", "--json"}, `"score": 623`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, cfg, tt.args)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestEngineCommandUnknownUser(t *testing.T) {
	cfg := testConfig(t)

	_, err := run(t, cfg, []string{"engine", "--email", "nobody@example.com"})
	assert.Error(t, err)
}

func TestDataDirFlag(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.DataDir
	cfg.DataDir = filepath.Join(dir, "elsewhere")

	out, err := run(t, cfg, []string{"engine", "--data-dir", dir})
	require.NoError(t, err)
	assert.Contains(t, out, "Crediflow Score: 590.")
}
