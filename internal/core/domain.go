package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

type (
	// Amount is a spending amount in USD. It may hold NaN when the user typed
	// something that is not a number; such values are kept and displayed as is.
	Amount float64

	// Expense is one logged spending event. It has no identifier: its position
	// in the collection is its identity.
	Expense struct {
		Name     string `json:"name"`
		Amount   Amount `json:"amount"`
		Category string `json:"category"`
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrMissingField   = errors.New("missing field")
	ErrNotAnExpense   = errors.New("not an expense record")
	ErrNotACollection = errors.New("not an expense collection")
)

// NewExpense builds a record from raw user input. The amount is parsed with
// ParseAmount and is never rejected.
func NewExpense(name, amountInput, category string) Expense {
	return Expense{
		Name:     name,
		Amount:   ParseAmount(amountInput),
		Category: category,
	}
}

// IsFinite reports whether the amount is a real number.
func (a Amount) IsFinite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON encodes non-finite amounts as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// UnmarshalJSON decodes null as NaN and rejects anything that is not a number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	*a = Amount(f)
	return nil
}

// UnmarshalJSON validates the record shape: name and category must be strings,
// amount must be present and numeric (or null).
func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     *string         `json:"name"`
		Amount   json.RawMessage `json:"amount"`
		Category *string         `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAnExpense, err)
	}
	switch {
	case raw.Name == nil:
		return fmt.Errorf("%w: name", ErrMissingField)
	case raw.Category == nil:
		return fmt.Errorf("%w: category", ErrMissingField)
	case raw.Amount == nil:
		return fmt.Errorf("%w: amount", ErrMissingField)
	}
	var amount Amount
	if err := amount.UnmarshalJSON(raw.Amount); err != nil {
		return err
	}
	*e = Expense{Name: *raw.Name, Amount: amount, Category: *raw.Category}
	return nil
}

// EncodeCollection serializes the whole collection. An empty or nil
// collection encodes as an empty JSON array.
func EncodeCollection(items []Expense) ([]byte, error) {
	if items == nil {
		items = []Expense{}
	}
	return json.Marshal(items)
}

// DecodeCollection parses and validates a serialized collection.
func DecodeCollection(data []byte) ([]Expense, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotACollection
	}
	var items []Expense
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Expense{}
	}
	return items, nil
}
