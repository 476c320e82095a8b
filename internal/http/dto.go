package http

import (
	"time"

	"fintrack/internal/core"
)

// Response shapes. Amounts are plain JSON numbers and dates YYYY-MM-DD.
type (
	transactionJSON struct {
		ID          int64   `json:"id"`
		UserID      int64   `json:"user_id"`
		Type        string  `json:"type"`
		Amount      float64 `json:"amount"`
		Date        string  `json:"date"`
		Description *string `json:"description"`
		CategoryID  int64   `json:"category_id"`
		Category    string  `json:"category"`
		CreatedAt   string  `json:"created_at"`
	}

	statsJSON struct {
		TotalIncome  float64 `json:"totalIncome"`
		TotalExpense float64 `json:"totalExpense"`
		Balance      float64 `json:"balance"`
		SavingsRate  float64 `json:"savingsRate"`
	}

	categoryTotalJSON struct {
		Category string  `json:"category"`
		Type     string  `json:"type,omitempty"`
		Total    float64 `json:"total"`
	}

	monthTrendJSON struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	dashboardJSON struct {
		InitialBalanceRequired bool                `json:"initialBalanceRequired"`
		Stats                  statsJSON           `json:"stats"`
		RecentTransactions     []transactionJSON   `json:"recentTransactions"`
		SpendingByCategory     []categoryTotalJSON `json:"spendingByCategory"`
		MonthlyTrends          []monthTrendJSON    `json:"monthlyTrends"`
	}

	monthlySpendingJSON struct {
		Month    string  `json:"month"`
		Spending float64 `json:"spending"`
		Income   float64 `json:"income"`
	}

	comparisonJSON struct {
		Month    string  `json:"month"`
		Income   float64 `json:"income"`
		Expenses float64 `json:"expenses"`
	}

	summaryStatsJSON struct {
		TotalIncome            float64 `json:"totalIncome"`
		TotalExpenses          float64 `json:"totalExpenses"`
		SavingsRate            int64   `json:"savingsRate"`
		LargestExpenseCategory string  `json:"largestExpenseCategory"`
		LargestExpenseAmount   float64 `json:"largestExpenseAmount"`
	}

	reportsJSON struct {
		MonthlySpending   []monthlySpendingJSON `json:"monthlySpending"`
		CategoryBreakdown []categoryTotalJSON   `json:"categoryBreakdown"`
		ComparisonData    []comparisonJSON      `json:"comparisonData"`
		SummaryStats      summaryStatsJSON      `json:"summaryStats"`
	}

	categoryJSON struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}

	userJSON struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	messageJSON struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
)

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        t.Type.String(),
		Amount:      t.Amount.Float(),
		Date:        t.Date.String(),
		Description: optionalText(t.Description),
		CategoryID:  t.CategoryID,
		Category:    t.CategoryName,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// optionalText maps an empty string to JSON null.
func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toCategoryTotalsJSON(totals []core.CategoryTotal, withType bool) []categoryTotalJSON {
	out := make([]categoryTotalJSON, 0, len(totals))
	for _, c := range totals {
		j := categoryTotalJSON{Category: c.Category, Total: c.Total.Float()}
		if withType {
			j.Type = c.Type.String()
		}
		out = append(out, j)
	}
	return out
}

func toDashboardJSON(d core.Dashboard) dashboardJSON {
	trends := make([]monthTrendJSON, 0, len(d.MonthlyTrends))
	for _, m := range d.MonthlyTrends {
		trends = append(trends, monthTrendJSON{Month: m.Month, Income: m.Income.Float(), Expense: m.Expense.Float()})
	}
	return dashboardJSON{
		InitialBalanceRequired: d.InitialBalanceRequired,
		Stats: statsJSON{
			TotalIncome:  d.Stats.TotalIncome.Float(),
			TotalExpense: d.Stats.TotalExpense.Float(),
			Balance:      d.Stats.Balance.Float(),
			SavingsRate:  d.Stats.SavingsRate,
		},
		RecentTransactions: toTransactionsJSON(d.RecentTransactions),
		SpendingByCategory: toCategoryTotalsJSON(d.SpendingByCategory, true),
		MonthlyTrends:      trends,
	}
}

func toReportsJSON(r core.Reports) reportsJSON {
	monthly := make([]monthlySpendingJSON, 0, len(r.MonthlySpending))
	for _, m := range r.MonthlySpending {
		monthly = append(monthly, monthlySpendingJSON{Month: m.Month, Spending: m.Spending.Float(), Income: m.Income.Float()})
	}
	comparison := make([]comparisonJSON, 0, len(r.ComparisonData))
	for _, c := range r.ComparisonData {
		comparison = append(comparison, comparisonJSON{Month: c.Month, Income: c.Income.Float(), Expenses: c.Expenses.Float()})
	}
	return reportsJSON{
		MonthlySpending:   monthly,
		CategoryBreakdown: toCategoryTotalsJSON(r.CategoryBreakdown, false),
		ComparisonData:    comparison,
		SummaryStats: summaryStatsJSON{
			TotalIncome:            r.SummaryStats.TotalIncome.Float(),
			TotalExpenses:          r.SummaryStats.TotalExpenses.Float(),
			SavingsRate:            r.SummaryStats.SavingsRate,
			LargestExpenseCategory: r.SummaryStats.LargestExpenseCategory,
			LargestExpenseAmount:   r.SummaryStats.LargestExpenseAmount.Float(),
		},
	}
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Username: u.Username, Email: u.Email}
}
