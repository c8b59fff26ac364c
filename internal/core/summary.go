package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// CategoryTotals sums amounts per category. Categories appear in the order
// they are first seen in items.
func CategoryTotals(items []Expense) []CategoryAmount {
	pos := make(map[string]int)
	var out []CategoryAmount
	for _, e := range items {
		i, ok := pos[e.Category]
		if !ok {
			i = len(out)
			pos[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category})
		}
		out[i].Amount += float64(e.Amount)
	}
	return out
}

// Total returns the sum of all amounts. A single NaN amount makes it NaN.
func Total(items []Expense) float64 {
	var sum float64
	for _, e := range items {
		sum += float64(e.Amount)
	}
	return sum
}
