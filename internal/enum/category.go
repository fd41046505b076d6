package enum

// ExpenseCategories is the fixed category set the analysis capability may
// classify a receipt into.
var ExpenseCategories = []string{
	"Meals & Entertainment",
	"Travel - Airfare",
	"Travel - Lodging",
	"Travel - Ground Transportation",
	"Office Supplies",
	"Equipment",
	"Software & Subscriptions",
	"Professional Services",
	"Training & Education",
	"Communication",
	"Shipping & Postage",
	"Other",
}

func IsValidExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}
