package view

import (
	"context"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

// Board holds the latest rendering of the log and the chart. It subscribes to
// the store and re-renders both on every change.
type Board struct {
	mu    sync.RWMutex
	log   []LogLine
	total string
	chart *BarChart
}

var _ store.Listener = (*Board)(nil)

func NewBoard() *Board {
	return &Board{chart: &BarChart{}, total: core.FormatFixed(0, 2)}
}

// ExpensesChanged implements store.Listener.
func (b *Board) ExpensesChanged(_ context.Context, ch store.Change) {
	b.Render(ch.Items)
}

// Render replaces the whole displayed log and redraws the chart.
func (b *Board) Render(items []core.Expense) {
	lines := RenderLog(items)
	RenderChart(b.chart, items)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = lines
	b.total = core.FormatFixed(core.Total(items), 2)
}

func (b *Board) Log() []LogLine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]LogLine(nil), b.log...)
}

// Total is the two-decimal sum of the rendered collection.
func (b *Board) Total() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

func (b *Board) Chart() *BarChart {
	return b.chart
}
