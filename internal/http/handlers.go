package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/view"
)

const (
	noticeNotSaved = "Saved in this session only: storage is unavailable."
	lookupTimeout  = 15 * time.Second
)

type boardData struct {
	Log        []view.LogLine
	Total      string
	ChartLabel string
	Bars       []view.Bar
	Notice     string
}

type lookupData struct {
	ID     string
	Result view.Result
}

type indexData struct {
	Board      boardData
	Convert    lookupData
	Crypto     lookupData
	Currencies []string
	Symbols    []string
}

func (s *Server) boardData(notice string) boardData {
	return boardData{
		Log:        s.board.Log(),
		Total:      s.board.Total(),
		ChartLabel: view.ChartLabel,
		Bars:       s.board.Chart().Bars(),
		Notice:     notice,
	}
}

func (s *Server) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"templates":    "ok",
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_requests_failed_total", "counter", "HTTP requests answered with 5xx", tm.FailedRequests)
	metric("http_request_duration_avg_ms", "gauge", "Mean request duration", tm.AverageResponseTime().Milliseconds())
	metric("expenses_count", "gauge", "Records in the expense collection", s.store.Len())
	metric("rate_limit_rejections_total", "counter", "Requests refused by the rate limiter", s.limiter.Rejected())
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", s.limiter.ActiveClients())
	metric("suspicious_requests_total", "counter", "Requests flagged as probes", s.detector.SuspiciousCount())
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	convert, _ := s.convertPanel.Current()
	crypto, _ := s.cryptoPanel.Current()
	body, err := s.render("index.html", indexData{
		Board:      s.boardData(""),
		Convert:    lookupData{ID: "convert-result", Result: convert},
		Crypto:     lookupData{ID: "crypto-result", Result: crypto},
		Currencies: s.currencies,
		Symbols:    s.symbols,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorTypeInternal)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// respondBoard answers a mutation: the board partial for htmx, a redirect
// for plain forms.
func (s *Server) respondBoard(w http.ResponseWriter, r *http.Request, notice string, status int) {
	if !isHTMX(r) {
		redirectHome(w, r)
		return
	}
	body, err := s.render("board", s.boardData(notice))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Board template execution failed", applog.FieldError, err.Error())
		InternalServerError("Rendering failed").Write(w)
		return
	}
	NewHTMXResponse().
		Status(status).
		TriggerExpensesChanged(s.store.Len()).
		BodyHTML(body).
		Write(w)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	body, err := s.render("board", s.boardData(""))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Board template execution failed", applog.FieldError, err.Error())
		InternalServerError("Rendering failed").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, err)
		return
	}

	e, err := s.store.Add(r.Context(), p.Get("name"), p.Get("amount"), p.Get("category"))
	notice := ""
	if err != nil {
		// the record stays in memory; only persistence failed
		notice = noticeNotSaved
	}

	if p.IsJSON() || wantsJSON(r) {
		status := http.StatusCreated
		if err != nil {
			status = http.StatusAccepted
		}
		writeJSON(w, status, e)
		return
	}
	if isHTMX(r) {
		body, rerr := s.render("board", s.boardData(notice))
		if rerr != nil {
			s.logger.ErrorContext(r.Context(), "Board template execution failed", applog.FieldError, rerr.Error())
			InternalServerError("Rendering failed").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerExpensesChanged(s.store.Len()).
			TriggerFormReset().
			BodyHTML(body).
			Write(w)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		BadRequestError("Invalid expense index").Write(w)
		return
	}

	removed, err := s.store.DeleteAt(r.Context(), index)
	notice := ""
	if err != nil {
		notice = noticeNotSaved
	}

	if r.Method == http.MethodDelete && !isHTMX(r) {
		switch {
		case !removed:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": errNotFound.Error()})
		case err != nil:
			writeJSON(w, http.StatusAccepted, map[string]string{"warning": noticeNotSaved})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
		return
	}
	if !removed {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Delete ignored: index out of range",
			applog.FieldIndex, index, applog.FieldCount, s.store.Len())
	}
	s.respondBoard(w, r, notice, http.StatusOK)
}

var errNotFound = errors.New("no expense at that index")

// runLookup takes a sequence token from panel, runs fn and commits the
// result. A response for a superseded request is 204 so htmx leaves the
// newer result on screen.
func (s *Server) runLookup(w http.ResponseWriter, r *http.Request, panel *view.Panel, id string, fn func(ctx context.Context) view.Result) {
	token := panel.Begin()
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	res := fn(ctx)
	shown := panel.Commit(token, res)
	if !shown {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Discarded stale lookup result",
			applog.FieldSequence, token, "panel", id)
	}

	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, map[string]any{"result": res, "sequence": token, "shown": shown})
	case !isHTMX(r):
		redirectHome(w, r)
	case !shown:
		w.WriteHeader(http.StatusNoContent)
	default:
		body, err := s.render("lookup", lookupData{ID: id, Result: res})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Lookup template execution failed", applog.FieldError, err.Error())
			InternalServerError("Rendering failed").Write(w)
			return
		}
		NewHTMXResponse().BodyHTML(body).Write(w)
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, err)
		return
	}
	amount, currency := p.Get("amount"), p.Get("currency")
	s.runLookup(w, r, &s.convertPanel, "convert-result", func(ctx context.Context) view.Result {
		return s.converter.Render(ctx, amount, currency)
	})
}

func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBodyError(w, err)
		return
	}
	symbol := p.Get("symbol")
	s.runLookup(w, r, &s.cryptoPanel, "crypto-result", func(ctx context.Context) view.Result {
		return s.lookup.Render(ctx, symbol)
	})
}

func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	items := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": items,
		"count":    len(items),
		"total":    core.Amount(core.Total(items)),
	})
}

func (s *Server) handleAPIChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"label":  view.ChartLabel,
		"series": s.board.Chart().Series(),
	})
}
