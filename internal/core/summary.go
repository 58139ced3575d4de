package core

// CategoryAmount is an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   int64
}

// Summary bundles the derived numbers a screen needs.
type Summary struct {
	Sales         int64
	TotalExpenses int64
	Profit        int64
	ByCategory    []CategoryAmount
}

// TotalExpenses sums the amount of every record. An empty ledger totals 0.
func TotalExpenses(expenses []Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// Profit is monthly sales minus total expenses. It may be negative.
func Profit(sales Sales, expenses []Expense) int64 {
	return sales.Month - TotalExpenses(expenses)
}

// ByCategory sums amounts per category. Categories without records are
// absent; the order is that of each category's first occurrence.
func ByCategory(expenses []Expense) []CategoryAmount {
	index := make(map[Category]int)
	var out []CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			index[e.Category] = len(out)
			out = append(out, CategoryAmount{Category: e.Category, Amount: e.Amount})
			continue
		}
		out[i].Amount += e.Amount
	}
	return out
}

// Summarize computes every aggregate for a ledger.
func Summarize(l Ledger) Summary {
	total := TotalExpenses(l.Expenses)
	return Summary{
		Sales:         l.Sales.Month,
		TotalExpenses: total,
		Profit:        l.Sales.Month - total,
		ByCategory:    ByCategory(l.Expenses),
	}
}
