package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML([]byte("<p>ok</p>")).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpensesChanged(3).
		TriggerFormReset().
		Trigger("custom", "value").
		Write(w)

	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if string(events[EventExpensesChanged]) != `{"count":3}` {
		t.Errorf("%s = %s", EventExpensesChanged, events[EventExpensesChanged])
	}
	if _, ok := events[EventFormReset]; !ok {
		t.Errorf("missing %s", EventFormReset)
	}
	if string(events["custom"]) != `"value"` {
		t.Errorf("custom = %s", events["custom"])
	}
}

func TestHTMXResponseBuilder_Header(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("HX-Retarget", "#board").Write(w)
	if got := w.Header().Get("HX-Retarget"); got != "#board" {
		t.Errorf("HX-Retarget = %q", got)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		resp *HTMXResponseBuilder
		code int
		body string
	}{
		{"bad request", BadRequestError("Bad <input>"), http.StatusBadRequest, `<div class="error">Bad &lt;input&gt;</div>`},
		{"internal", InternalServerError("Oops"), http.StatusInternalServerError, `<div class="error">Oops</div>`},
		{"too many", ErrorResponse(http.StatusTooManyRequests, "Slow down"), http.StatusTooManyRequests, `<div class="error">Slow down</div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.resp.Write(w)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			if w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}
