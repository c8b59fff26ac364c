package view

import "sync"

// Result is what a lookup panel displays.
type Result struct {
	Lines []string `json:"lines"`
	Error bool     `json:"error"`
}

// Panel is the display element of one lookup type. Each lookup takes a token
// from Begin before it starts and hands it back to Commit; only the most
// recently issued token may update the panel.
type Panel struct {
	mu     sync.Mutex
	issued uint64
	shown  uint64
	result Result
}

// Begin issues the next sequence token.
func (p *Panel) Begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

// Commit displays r if token is still the newest one issued. It reports
// whether the result was shown.
func (p *Panel) Commit(token uint64, r Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.issued || token <= p.shown {
		return false
	}
	p.shown = token
	p.result = Result{Lines: append([]string(nil), r.Lines...), Error: r.Error}
	return true
}

// Current returns the displayed result and the token that produced it; the
// token is zero while nothing has been shown.
func (p *Panel) Current() (Result, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Result{Lines: append([]string(nil), p.result.Lines...), Error: p.result.Error}, p.shown
}
