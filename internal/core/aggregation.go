package core

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	recentLimit     = 5
	trendMonths     = 6
	comparisonLimit = 6

	// NoCategory is reported when a user has no expenses.
	NoCategory = "N/A"
)

var hundred = decimal.NewFromInt(100)

type (
	Stats struct {
		TotalIncome  Money
		TotalExpense Money
		Balance      Money
		SavingsRate  float64
	}

	CategoryTotal struct {
		Category string
		Type     TransactionType
		Total    Money
	}

	// MonthTotals holds income and expense sums for one year-month (YYYY-MM).
	MonthTotals struct {
		Month   string
		Income  Money
		Expense Money
	}

	Dashboard struct {
		InitialBalanceRequired bool
		Stats                  Stats
		RecentTransactions     []Transaction
		SpendingByCategory     []CategoryTotal
		MonthlyTrends          []MonthTotals
	}

	// MonthlySpending is one entry of the current-year series. Month is the
	// abbreviated English month name.
	MonthlySpending struct {
		Month    string
		Spending Money
		Income   Money
	}

	// Comparison is one month of the rolling comparison window. Month is the
	// full English month name.
	Comparison struct {
		Month    string
		Income   Money
		Expenses Money
	}

	SummaryStats struct {
		TotalIncome            Money
		TotalExpenses          Money
		SavingsRate            int64
		LargestExpenseCategory string
		LargestExpenseAmount   Money
	}

	Reports struct {
		MonthlySpending   []MonthlySpending
		CategoryBreakdown []CategoryTotal
		ComparisonData    []Comparison
		SummaryStats      SummaryStats
	}
)

// BuildDashboard derives the dashboard view from a user's full ledger.
// The ledger slice is not modified.
func BuildDashboard(user User, txs []Transaction) Dashboard {
	return Dashboard{
		InitialBalanceRequired: !user.InitialBalanceSet,
		Stats:                  ComputeStats(txs),
		RecentTransactions:     Recent(txs, recentLimit),
		SpendingByCategory:     CategoryBreakdown(txs),
		MonthlyTrends:          MonthlyTrend(txs, trendMonths),
	}
}

// BuildReports derives the reports view. now fixes the current year and the
// start of the rolling comparison window.
func BuildReports(txs []Transaction, now time.Time) Reports {
	stats := ComputeStats(txs)
	expenses := ExpenseBreakdown(txs)

	summary := SummaryStats{
		TotalIncome:            stats.TotalIncome,
		TotalExpenses:          stats.TotalExpense,
		SavingsRate:            roundHalfUp(stats.SavingsRate),
		LargestExpenseCategory: NoCategory,
	}
	if len(expenses) > 0 {
		summary.LargestExpenseCategory = expenses[0].Category
		summary.LargestExpenseAmount = expenses[0].Total
	}

	return Reports{
		MonthlySpending:   YearSeries(txs, now.Year()),
		CategoryBreakdown: expenses,
		ComparisonData:    ComparisonWindow(txs, now),
		SummaryStats:      summary,
	}
}

// ComputeStats sums income and expense over txs. Empty input yields zeros.
func ComputeStats(txs []Transaction) Stats {
	var s Stats
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	s.SavingsRate = SavingsRate(s.TotalIncome, s.TotalExpense)
	return s
}

// SavingsRate returns (income-expense)/income*100, or 0 when income is not
// positive. The result is not clamped.
func SavingsRate(income, expense Money) float64 {
	if !income.IsPositive() {
		return 0
	}
	return income.Decimal.Sub(expense.Decimal).Div(income.Decimal).Mul(hundred).InexactFloat64()
}

// SortNewestFirst orders txs by date descending, then creation time
// descending, then id descending.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Recent returns up to n transactions, newest first.
func Recent(txs []Transaction, n int) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	SortNewestFirst(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryBreakdown groups by (category, type) and orders by total descending.
func CategoryBreakdown(txs []Transaction) []CategoryTotal {
	type key struct {
		name string
		typ  TransactionType
	}
	sums := make(map[key]Money)
	for _, t := range txs {
		k := key{t.CategoryName, t.Type}
		sums[k] = sums[k].Add(t.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, CategoryTotal{Category: k.name, Type: k.typ, Total: v})
	}
	sortTotals(out)
	return out
}

// ExpenseBreakdown groups expenses by category name, total descending.
func ExpenseBreakdown(txs []Transaction) []CategoryTotal {
	sums := make(map[string]Money)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		sums[t.CategoryName] = sums[t.CategoryName].Add(t.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for name, v := range sums {
		out = append(out, CategoryTotal{Category: name, Type: Expense, Total: v})
	}
	sortTotals(out)
	return out
}

func sortTotals(out []CategoryTotal) {
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total.Decimal); c != 0 {
			return c > 0
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Type < out[j].Type
	})
}

// MonthlyTrend returns the n most recent year-months with activity in
// ascending order.
func MonthlyTrend(txs []Transaction, n int) []MonthTotals {
	byMonth := make(map[string]*MonthTotals)
	for _, t := range txs {
		k := t.Date.MonthKey()
		m, ok := byMonth[k]
		if !ok {
			m = &MonthTotals{Month: k}
			byMonth[k] = m
		}
		switch t.Type {
		case Income:
			m.Income = m.Income.Add(t.Amount)
		case Expense:
			m.Expense = m.Expense.Add(t.Amount)
		}
	}
	out := make([]MonthTotals, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	// YYYY-MM keys sort lexically in chronological order.
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// YearSeries returns exactly 12 entries for year, zero-filled.
func YearSeries(txs []Transaction, year int) []MonthlySpending {
	out := make([]MonthlySpending, 12)
	for i := range out {
		out[i].Month = time.Month(i + 1).String()[:3]
	}
	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		e := &out[t.Date.Month()-1]
		switch t.Type {
		case Income:
			e.Income = e.Income.Add(t.Amount)
		case Expense:
			e.Spending = e.Spending.Add(t.Amount)
		}
	}
	return out
}

// ComparisonWindow covers transactions dated on or after now minus six
// months, grouped by year-month, at most six entries in ascending order.
func ComparisonWindow(txs []Transaction, now time.Time) []Comparison {
	from := DateOf(now).AddDate(0, -6, 0)
	var window []Transaction
	for _, t := range txs {
		if !t.Date.Before(from) {
			window = append(window, t)
		}
	}
	months := MonthlyTrend(window, comparisonLimit)
	out := make([]Comparison, 0, len(months))
	for _, m := range months {
		ts, _ := time.Parse("2006-01", m.Month)
		out = append(out, Comparison{Month: ts.Month().String(), Income: m.Income, Expenses: m.Expense})
	}
	return out
}

func roundHalfUp(f float64) int64 {
	return int64(math.Floor(f + 0.5))
}
