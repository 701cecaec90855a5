// Package engine computes the deterministic Crediflow score from bank
// transactions and delivery-partner income.
//
// Positive indices, each clamped to [0, 1]:
//
//	ISI  income stability     avg monthly income / (3 * std of monthly income)
//	SSI  saving strength      avg monthly savings / avg monthly income
//	SBI  spending behavior    avg daily income / (5 * avg daily expense)
//	RRI  repayment            EMI transactions / (active loans * months), 0.8 without loans
//	TCI  credibility          credit transactions / all transactions
//
//	GCS = 1000 * (0.30 ISI + 0.25 RRI + 0.20 SBI + 0.15 SSI + 0.10 TCI)
//
// Risk factors IR, DR, SR, TR and BR combine into RF = 0.30 IR + 0.25 DR +
// 0.20 SR + 0.15 TR + 0.10 BR and the final score is GCS * (1 - RF)
// clamped to [300, 1000].
package engine

import (
	"fmt"
	"math"
	"strings"

	"crediflow/internal/dataset"
	"crediflow/internal/prompt"
)

const (
	MinScore = 300
	MaxScore = 1000
)

var highRiskCategories = map[string]bool{
	"gambling":         true,
	"liquor":           true,
	"alcohol":          true,
	"entertainment":    true,
	"luxury":           true,
	"betting":          true,
	"personal expense": true,
	"food & fuel":      true,
}

// Input is everything the engine looks at. Nil datasets are treated as empty.
type Input struct {
	Transactions *dataset.Dataset
	Income       *dataset.Dataset
	ActiveLoans  int
}

// Score is the engine output with every intermediate value kept for display.
type Score struct {
	Final int `json:"score"`

	ISI float64 `json:"isi"`
	SSI float64 `json:"ssi"`
	SBI float64 `json:"sbi"`
	RRI float64 `json:"rri"`
	TCI float64 `json:"tci"`

	IR float64 `json:"ir"`
	DR float64 `json:"dr"`
	SR float64 `json:"sr"`
	TR float64 `json:"tr"`
	BR float64 `json:"br"`
	RF float64 `json:"rf"`

	GCS      float64 `json:"gcs"`
	Adjusted float64 `json:"adjusted"`
	Analysis string  `json:"analysis"`
}

// Params returns the engine's SSI and SBI in the form the prompt builder takes.
func (s Score) Params() prompt.Params {
	return prompt.Params{SSI: s.SSI, SBI: s.SBI}
}

// monthly keeps per-month buckets in first-seen order.
type monthly struct {
	order []string
	index map[string]int
}

func newMonthly() *monthly {
	return &monthly{index: make(map[string]int)}
}

func (m *monthly) slot(date string) (int, bool) {
	if len(date) > 7 {
		date = date[:7]
	}
	if date == "" {
		return 0, false
	}
	i, ok := m.index[date]
	if !ok {
		i = len(m.order)
		m.index[date] = i
		m.order = append(m.order, date)
	}
	return i, true
}

func (m *monthly) len() int { return len(m.order) }

// Calculate runs the scoring formulas.
func Calculate(in Input) Score {
	tx, inc := in.Transactions, in.Income

	// Income side.
	var dailyIncomes, dailyExpenses []float64
	incomeMonths := newMonthly()
	var monthlyIncomes []float64
	for i := 0; i < inc.Len(); i++ {
		income := inc.Float(i, "net_daily_income")
		dailyIncomes = append(dailyIncomes, income)
		dailyExpenses = append(dailyExpenses, inc.Float(i, "fuel_expense"))
		if slot, ok := incomeMonths.slot(inc.Value(i, "work_date")); ok {
			if slot == len(monthlyIncomes) {
				monthlyIncomes = append(monthlyIncomes, 0)
			}
			monthlyIncomes[slot] += income
		}
	}
	avgMonthlyIncome := meanOr(monthlyIncomes, 1)
	avgDailyIncome := meanOr(dailyIncomes, 1)
	avgDailyExpense := meanOr(dailyExpenses, 1)

	// Bank side.
	totalTxns := float64(tx.Len())
	if totalTxns == 0 {
		totalTxns = 1
	}
	bankMonths := newMonthly()
	var credit, debit []float64
	var credits, emiCount, irregularCount int
	var totalEmi, totalExpense, highRisk float64
	for i := 0; i < tx.Len(); i++ {
		kind := tx.Value(i, "transaction_type")
		amount := tx.Float(i, "amount")
		category := strings.ToLower(tx.Value(i, "category"))

		if slot, ok := bankMonths.slot(tx.Value(i, "transaction_date")); ok {
			if slot == len(credit) {
				credit = append(credit, 0)
				debit = append(debit, 0)
			}
			if kind == "CREDIT" {
				credit[slot] += amount
			} else {
				debit[slot] += amount
			}
		}
		switch kind {
		case "CREDIT":
			credits++
		case "DEBIT":
			totalExpense += amount
			if highRiskCategories[category] {
				highRisk += amount
			}
		}
		if strings.Contains(category, "emi") {
			emiCount++
			totalEmi += amount
		}
		if strings.Contains(category, "savings transfer") {
			irregularCount++
		}
	}
	monthlySavings := make([]float64, len(credit))
	for i := range credit {
		monthlySavings[i] = credit[i] - debit[i]
	}
	avgMonthlySavings := meanOr(monthlySavings, 1)
	months := float64(bankMonths.len())
	if months == 0 {
		months = 1
	}
	avgMonthlyEmi := totalEmi / months
	if totalExpense == 0 {
		totalExpense = 1
	}

	var s Score

	s.ISI = clamp01(avgMonthlyIncome / (stddev(monthlyIncomes) * 3))
	s.SSI = clamp01(avgMonthlySavings / orOne(avgMonthlyIncome))
	s.SBI = clamp01(avgDailyIncome / orOne(avgDailyExpense*5))
	expectedEmi := float64(in.ActiveLoans) * months
	if expectedEmi > 0 {
		s.RRI = clamp01(float64(emiCount) / expectedEmi)
	} else {
		s.RRI = 0.8
	}
	s.TCI = clamp01(float64(credits) / totalTxns)

	s.GCS = 1000 * (0.30*s.ISI + 0.25*s.RRI + 0.20*s.SBI + 0.15*s.SSI + 0.10*s.TCI)

	lowIncome := 0
	for _, m := range monthlyIncomes {
		if m < avgMonthlyIncome*0.70 {
			lowIncome++
		}
	}
	s.IR = clamp01(float64(lowIncome) / orOne(float64(len(monthlyIncomes))))
	s.DR = clamp01(avgMonthlyEmi / orOne(avgMonthlyIncome))
	s.SR = clamp01(highRisk / totalExpense)
	s.TR = clamp01(float64(irregularCount) / totalTxns)
	negative := 0
	for _, v := range monthlySavings {
		if v < 0 {
			negative++
		}
	}
	s.BR = clamp01(float64(negative) / orOne(float64(len(monthlySavings))))

	s.RF = 0.30*s.IR + 0.25*s.DR + 0.20*s.SR + 0.15*s.TR + 0.10*s.BR
	s.Adjusted = s.GCS * (1 - s.RF)
	s.Final = int(math.Round(clamp(s.Adjusted, MinScore, MaxScore)))
	s.Analysis = analysis(s)
	return s
}

func analysis(s Score) string {
	return fmt.Sprintf("Crediflow Score: %d. "+
		"ISI=%.2f (Income Stability), SSI=%.2f (Saving Strength), "+
		"SBI=%.2f (Spending Behavior), RRI=%.2f (Repayment), TCI=%.2f (Transaction Credibility). "+
		"Risk: IR=%.2f, DR=%.2f, SR=%.2f, TR=%.2f, BR=%.2f → RF=%.2f. "+
		"Base GCS=%.1f, Adjusted=%.1f.",
		s.Final,
		s.ISI, s.SSI, s.SBI, s.RRI, s.TCI,
		s.IR, s.DR, s.SR, s.TR, s.BR, s.RF,
		s.GCS, s.Adjusted)
}

func meanOr(x []float64, fallback float64) float64 {
	if len(x) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// stddev is the population standard deviation. Fewer than two values, or
// no spread at all, yield 1 so it can be used as a divisor.
func stddev(x []float64) float64 {
	if len(x) < 2 {
		return 1
	}
	m := meanOr(x, 0)
	var ss float64
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return orOne(math.Sqrt(ss / float64(len(x))))
}

func orOne(v float64) float64 {
	if v == 0 || math.IsNaN(v) {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
