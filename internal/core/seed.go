package core

// SeedSalesMonth is the static monthly sales figure.
const SeedSalesMonth int64 = 350000

// SeedLedger returns the example ledger used on first run or when the stored
// blob cannot be read.
func SeedLedger() Ledger {
	return Ledger{
		Sales: Sales{Month: SeedSalesMonth},
		Expenses: []Expense{
			{Date: "2025-08-10", Amount: 32000, Category: CategoryMaterials, Memo: "野菜と肉"},
			{Date: "2025-08-12", Amount: 15000, Category: CategoryUtilities, Memo: "電気代"},
			{Date: "2025-08-14", Amount: 80000, Category: CategoryRent, Memo: "8月分"},
		},
	}
}

// SeedState wraps the seed ledger in a fresh session on the dashboard.
func SeedState() AppState {
	return AppState{
		Ledger:  SeedLedger(),
		Session: Session{CurrentView: ViewDashboard},
	}
}
