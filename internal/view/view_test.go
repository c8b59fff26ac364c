package view

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/storage/memory"
)

func scenario() []core.Expense {
	return []core.Expense{
		{Name: "Coffee", Amount: 3.5, Category: "Food"},
		{Name: "Bus", Amount: 2.25, Category: "Transport"},
	}
}

func TestRenderLogScenario(t *testing.T) {
	lines := RenderLog(scenario())
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	want := []string{"Coffee: $3.50 (Food)", "Bus: $2.25 (Transport)"}
	for i, l := range lines {
		if l.Text() != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], l.Text())
		}
		if l.Index != i {
			t.Fatalf("line %d bound to index %d", i, l.Index)
		}
	}
}

func TestRenderLogNaN(t *testing.T) {
	lines := RenderLog([]core.Expense{core.NewExpense("Mystery", "abc", "Misc")})
	if lines[0].Text() != "Mystery: $NaN (Misc)" {
		t.Fatalf("unexpected line %q", lines[0].Text())
	}
}

func TestCategorySeriesScenario(t *testing.T) {
	s := CategorySeries(scenario())
	if len(s.Labels) != 2 || s.Labels[0] != "Food" || s.Labels[1] != "Transport" {
		t.Fatalf("unexpected labels %v", s.Labels)
	}
	if s.Values[0] != 3.5 || s.Values[1] != 2.25 {
		t.Fatalf("unexpected values %v", s.Values)
	}
}

func TestRenderChartIsIdempotent(t *testing.T) {
	c := &BarChart{}
	first := RenderChart(c, scenario())
	second := RenderChart(c, scenario())
	if len(first.Labels) != len(second.Labels) {
		t.Fatalf("series changed between identical renders")
	}
	for i := range first.Values {
		if first.Values[i] != second.Values[i] || first.Labels[i] != second.Labels[i] {
			t.Fatalf("series changed between identical renders")
		}
	}
	if c.Draws() != 2 {
		t.Fatalf("expected 2 draws, got %d", c.Draws())
	}
}

func TestBarLayout(t *testing.T) {
	c := &BarChart{}
	c.SetSeries([]string{"Food", "Transport", "Tiny", "Refunds", "Broken"},
		[]float64{10, 5, 0.01, -3, math.NaN()})
	if len(c.Bars()) != 0 {
		t.Fatalf("bars drawn before Update")
	}
	c.Update()
	bars := c.Bars()
	widths := []int{100, 50, 2, 0, 0}
	for i, w := range widths {
		if bars[i].Width != w {
			t.Fatalf("bar %s: expected width %d, got %d", bars[i].Label, w, bars[i].Width)
		}
	}
	if bars[4].Amount != "NaN" {
		t.Fatalf("expected NaN amount label, got %q", bars[4].Amount)
	}
}

func TestSeriesJSONWithNaN(t *testing.T) {
	b, err := json.Marshal(Series{Labels: []string{"Misc"}, Values: []float64{math.NaN()}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"labels":["Misc"],"values":[null]}` {
		t.Fatalf("unexpected json %s", b)
	}
	b, _ = json.Marshal(Series{})
	if string(b) != `{"labels":[],"values":[]}` {
		t.Fatalf("unexpected empty json %s", b)
	}
}

func TestBoardFollowsStore(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New())
	board := NewBoard()
	s.Subscribe(board)

	if _, err := s.Add(ctx, "Coffee", "3.5", "Food"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(ctx, "Bus", "2.25", "Transport"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := len(board.Log()); got != 2 {
		t.Fatalf("expected 2 log lines, got %d", got)
	}
	if board.Total() != "5.75" {
		t.Fatalf("unexpected total %q", board.Total())
	}

	if _, err := s.DeleteAt(ctx, 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	log := board.Log()
	if len(log) != 1 || log[0].Name != "Bus" || log[0].Index != 0 {
		t.Fatalf("unexpected log after delete: %+v", log)
	}
	series := board.Chart().Series()
	if len(series.Labels) != 1 || series.Labels[0] != "Transport" {
		t.Fatalf("unexpected chart after delete: %+v", series)
	}
}

func TestBoardTotalsMatchCollection(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New())
	board := NewBoard()
	s.Subscribe(board)

	inputs := []struct{ name, amount, cat string }{
		{"a", "1.25", "x"}, {"b", "2", "y"}, {"c", "-0.5", "x"}, {"d", "0", "z"}, {"e", "10", "y"},
	}
	for _, in := range inputs {
		if _, err := s.Add(ctx, in.name, in.amount, in.cat); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	_, _ = s.DeleteAt(ctx, 1)

	var sum float64
	for _, v := range board.Chart().Series().Values {
		sum += v
	}
	if sum != core.Total(s.Snapshot()) {
		t.Fatalf("chart sum %v != collection sum %v", sum, core.Total(s.Snapshot()))
	}
}

func TestPanelDiscardsStaleResults(t *testing.T) {
	var p Panel
	first := p.Begin()
	second := p.Begin()

	if !p.Commit(second, Result{Lines: []string{"new"}}) {
		t.Fatalf("newest result should be shown")
	}
	if p.Commit(first, Result{Lines: []string{"old"}}) {
		t.Fatalf("stale result should be discarded")
	}
	got, tok := p.Current()
	if tok != second || got.Lines[0] != "new" {
		t.Fatalf("unexpected panel state %v (token %d)", got, tok)
	}
	if p.Commit(second, Result{Lines: []string{"again"}}) {
		t.Fatalf("a token must not be committed twice")
	}
}

func TestPanelConcurrentLookups(t *testing.T) {
	var p Panel
	var wg sync.WaitGroup
	tokens := make([]uint64, 20)
	for i := range tokens {
		tokens[i] = p.Begin()
	}
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok uint64) {
			defer wg.Done()
			p.Commit(tok, Result{Lines: []string{"r"}})
		}(i, tok)
	}
	wg.Wait()
	if _, shown := p.Current(); shown != tokens[len(tokens)-1] {
		t.Fatalf("expected last token %d to win, got %d", tokens[len(tokens)-1], shown)
	}
}
