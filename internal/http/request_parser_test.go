package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("name=+Coffee+&amount=3.50&category=Food"))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true for form body")
	}

	tests := map[string]string{
		"name":     "Coffee",
		"amount":   "3.50",
		"category": "Food",
		"missing":  "",
	}
	for key, want := range tests {
		if got := p.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"name":"Book","amount":12.5,"category":"Fun","flag":true,"nested":{"a":1}}`
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("IsJSON() = false for JSON body")
	}

	tests := []struct {
		key  string
		want string
	}{
		{"name", "Book"},
		{"amount", "12.5"},
		{"flag", "true"},
		{"nested", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := p.Get(tt.key); got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"name":`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// a second call reports the same result
	if err := p.Parse(); err == nil {
		t.Fatal("expected cached error")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("amount"); got != "" {
		t.Errorf("Get(amount) = %q", got)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "name=" + strings.Repeat("x", maxBodyBytes)
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)

	err := p.Parse()
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Parse() error = %v, want *http.MaxBytesError", err)
	}
	if p.Get("name") != "" {
		t.Error("oversized body should yield no fields")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  Coffee  ", "Coffee"},
		{"drops control characters", "Cof\x00fee\x07", "Coffee"},
		{"keeps tabs inside", "a\tb", "a\tb"},
		{"keeps markup for the template to escape", "<b>x</b>", "<b>x</b>"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.in); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"12", 12, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodDelete, "/expenses/x", nil)
		req.SetPathValue("index", tt.raw)
		got, err := parseIndex(req)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIndex(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseIndex(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Error("plain request detected as htmx")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Error("htmx request not detected")
	}
}
