package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"crediflow/internal/dataset"
)

// DefaultHeadRows is how many rows of each dataset are embedded in the prompt.
const DefaultHeadRows = 10

// Params are the two scalar indices fed into the scoring prompt.
type Params struct {
	SSI float64 `json:"ssi"`
	SBI float64 `json:"sbi"`
}

// DefaultParams returns the placeholder indices used when nothing else is configured.
func DefaultParams() Params {
	return Params{SSI: 0.5, SBI: 0.5}
}

// Build renders the credit scoring prompt. It is a pure function of its inputs.
func Build(transactions, income *dataset.Dataset, params Params, headRows int) string {
	if headRows <= 0 {
		headRows = DefaultHeadRows
	}
	ssi := formatParam(params.SSI)
	sbi := formatParam(params.SBI)

	var b strings.Builder
	b.WriteString("You are a credit scoring expert. Calculate a credit score based on the following financial data.\n\n")
	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- SSI (Savings/Stability Index?): %s\n", ssi)
	fmt.Fprintf(&b, "- SBI (Spending/Behavior Index?): %s\n\n", sbi)

	section(&b, "Transaction Data Summary", transactions.Describe().String())
	section(&b, "Transaction Data Head", transactions.Head(headRows).String())
	section(&b, "Income Data Summary", income.Describe().String())
	section(&b, "Income Data Head", income.Head(headRows).String())

	b.WriteString("Task:\n")
	b.WriteString("Analyze the financial stability and spending behavior.\n")
	fmt.Fprintf(&b, "Use the SSI (%s) and SBI (%s) parameters in your evaluation.\n", ssi, sbi)
	b.WriteString("Provide a credit score between 300 and 900 and a brief explanation.\n")
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(title)
	b.WriteString(":\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
