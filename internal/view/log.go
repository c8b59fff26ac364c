// Package view renders the expense collection for display.
//
// Renderers are pure functions of a collection snapshot. Board keeps the most
// recent rendering so the web UI can serve it, and Panel holds the latest
// result of each lookup.
package view

import (
	"fmt"

	"spendlog/internal/core"
)

// LogLine is one rendered entry of the expense log. Index is the position the
// delete control acts on.
type LogLine struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// Text renders the line as "Coffee: $3.50 (Food)".
func (l LogLine) Text() string {
	return fmt.Sprintf("%s: $%s (%s)", l.Name, l.Amount, l.Category)
}

// RenderLog builds the full log for items, in collection order.
func RenderLog(items []core.Expense) []LogLine {
	lines := make([]LogLine, len(items))
	for i, e := range items {
		lines[i] = LogLine{
			Index:    i,
			Name:     e.Name,
			Amount:   e.Amount.Fixed(2),
			Category: e.Category,
		}
	}
	return lines
}
