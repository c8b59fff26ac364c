package core

import (
	"errors"
	"math"
	"testing"
)

func TestCollectionRoundTrip(t *testing.T) {
	cases := map[string][]Expense{
		"empty":  {},
		"single": {{Name: "Coffee", Amount: 3.5, Category: "Food"}},
		"zero and negative": {
			{Name: "Refund", Amount: -12, Category: "Shopping"},
			{Name: "Free sample", Amount: 0, Category: "Food"},
			{Name: "Bus", Amount: 2.25, Category: "Transport"},
		},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			blob, err := EncodeCollection(items)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeCollection(blob)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(items) {
				t.Fatalf("expected %d items, got %d", len(items), len(got))
			}
			for i := range items {
				if got[i] != items[i] {
					t.Fatalf("item %d: expected %+v, got %+v", i, items[i], got[i])
				}
			}
		})
	}
}

func TestEncodeNilCollection(t *testing.T) {
	blob, err := EncodeCollection(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(blob) != "[]" {
		t.Fatalf("expected [], got %s", blob)
	}
}

func TestNaNAmountSurvivesRoundTrip(t *testing.T) {
	items := []Expense{NewExpense("Mystery", "abc", "Misc")}
	blob, err := EncodeCollection(items)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(blob) != `[{"name":"Mystery","amount":null,"category":"Misc"}]` {
		t.Fatalf("unexpected blob %s", blob)
	}
	got, err := DecodeCollection(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !math.IsNaN(float64(got[0].Amount)) {
		t.Fatalf("expected NaN amount, got %v", got[0].Amount)
	}
}

func TestDecodeCollectionRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		blob string
		want error
	}{
		{"not json", `{{{`, ErrNotACollection},
		{"object", `{"name":"x"}`, ErrNotACollection},
		{"null", `null`, ErrNotACollection},
		{"missing name", `[{"amount":1,"category":"c"}]`, ErrMissingField},
		{"missing amount", `[{"name":"n","category":"c"}]`, ErrMissingField},
		{"string amount", `[{"name":"n","amount":"1","category":"c"}]`, ErrInvalidAmount},
		{"null element", `[null]`, ErrMissingField},
		{"number element", `[1]`, ErrNotAnExpense},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCollection([]byte(tc.blob))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCategoryTotals(t *testing.T) {
	items := []Expense{
		{Name: "Coffee", Amount: 3.5, Category: "Food"},
		{Name: "Bus", Amount: 2.25, Category: "Transport"},
		{Name: "Lunch", Amount: 10, Category: "Food"},
	}
	got := CategoryTotals(items)
	want := []CategoryAmount{{"Food", 13.5}, {"Transport", 2.25}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	var sum float64
	for _, c := range got {
		sum += c.Amount
	}
	if sum != Total(items) {
		t.Fatalf("totals sum %v != collection total %v", sum, Total(items))
	}
}

func TestCategoryTotalsEmpty(t *testing.T) {
	if got := CategoryTotals(nil); len(got) != 0 {
		t.Fatalf("expected no totals, got %v", got)
	}
	if Total(nil) != 0 {
		t.Fatalf("expected zero total")
	}
}
