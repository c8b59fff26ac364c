package view

import (
	"encoding/json"
	"math"
	"sync"

	"spendlog/internal/core"
)

// ChartLabel is the dataset label shown on the spending chart.
const ChartLabel = "Spending by Category"

// Chart is the widget that draws the category series.
type Chart interface {
	SetSeries(labels []string, values []float64)
	Update()
}

// Series is a label/value pair list in category first-appearance order.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// MarshalJSON writes non-finite values as null.
func (s Series) MarshalJSON() ([]byte, error) {
	values := make([]core.Amount, len(s.Values))
	for i, v := range s.Values {
		values[i] = core.Amount(v)
	}
	labels := s.Labels
	if labels == nil {
		labels = []string{}
	}
	return json.Marshal(struct {
		Labels []string      `json:"labels"`
		Values []core.Amount `json:"values"`
	}{labels, values})
}

// CategorySeries aggregates items into the chart series.
func CategorySeries(items []core.Expense) Series {
	totals := core.CategoryTotals(items)
	s := Series{
		Labels: make([]string, len(totals)),
		Values: make([]float64, len(totals)),
	}
	for i, t := range totals {
		s.Labels[i] = t.Name
		s.Values[i] = t.Amount
	}
	return s
}

// RenderChart pushes the series derived from items into c and redraws it.
func RenderChart(c Chart, items []core.Expense) Series {
	s := CategorySeries(items)
	c.SetSeries(s.Labels, s.Values)
	c.Update()
	return s
}

// Bar is one drawn bar. Width is a percentage of the largest bar.
type Bar struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
	Width  int    `json:"width"`
}

// BarChart is a Chart that lays the series out as proportional bars.
type BarChart struct {
	mu      sync.RWMutex
	pending Series
	series  Series
	bars    []Bar
	draws   int
}

var _ Chart = (*BarChart)(nil)

func (c *BarChart) SetSeries(labels []string, values []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = Series{
		Labels: append([]string(nil), labels...),
		Values: append([]float64(nil), values...),
	}
}

// Update lays out the pending series.
func (c *BarChart) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = c.pending
	c.bars = layoutBars(c.series)
	c.draws++
}

// Series returns the series currently drawn.
func (c *BarChart) Series() Series {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Series{
		Labels: append([]string{}, c.series.Labels...),
		Values: append([]float64{}, c.series.Values...),
	}
}

func (c *BarChart) Bars() []Bar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Bar(nil), c.bars...)
}

// Draws counts completed Update calls.
func (c *BarChart) Draws() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draws
}

func layoutBars(s Series) []Bar {
	var max float64
	for _, v := range s.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > max {
			max = v
		}
	}
	bars := make([]Bar, len(s.Labels))
	for i, label := range s.Labels {
		v := s.Values[i]
		width := 0
		if max > 0 && v > 0 && !math.IsInf(v, 0) {
			width = int(math.Round(v * 100 / max))
			if width < 2 { // keep tiny values visible
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		bars[i] = Bar{Label: label, Amount: core.FormatFixed(v, 2), Width: width}
	}
	return bars
}
