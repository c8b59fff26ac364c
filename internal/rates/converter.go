package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/view"
)

// Messages shown in the conversion panel.
const (
	MsgInvalidAmount = "Please enter a valid amount."
	MsgUnavailable   = "Unable to fetch exchange rate"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Conversion is a completed USD conversion.
type Conversion struct {
	Amount    float64
	Currency  string
	Rate      decimal.Decimal
	Converted decimal.Decimal
}

// String renders "100 USD = 92.50 EUR".
func (c Conversion) String() string {
	return fmt.Sprintf("%s USD = %s %s", core.FormatNumber(c.Amount), c.Converted.StringFixed(2), c.Currency)
}

type Converter struct {
	source Source
}

func NewConverter(source Source) *Converter {
	return &Converter{source: source}
}

// Convert parses amountInput and converts it from USD into currency. An
// unparsable amount fails with ErrInvalidAmount before any request is made.
func (c *Converter) Convert(ctx context.Context, amountInput, currency string) (Conversion, error) {
	amount := core.ParseAmount(amountInput)
	if !amount.IsFinite() {
		return Conversion{}, ErrInvalidAmount
	}
	code := strings.ToUpper(strings.TrimSpace(currency))

	rates, err := c.source.Latest(ctx)
	if err != nil {
		return Conversion{}, err
	}
	rate, ok := rates[code]
	if !ok {
		return Conversion{}, fmt.Errorf("%w: %q", ErrRateMissing, code)
	}
	return Conversion{
		Amount:    float64(amount),
		Currency:  code,
		Rate:      rate,
		Converted: decimal.NewFromFloat(float64(amount)).Mul(rate),
	}, nil
}

// Render runs Convert and turns the outcome into panel text. Failures are
// logged and shown as an explicit error line.
func (c *Converter) Render(ctx context.Context, amountInput, currency string) view.Result {
	conv, err := c.Convert(ctx, amountInput, currency)
	if err == nil {
		return view.Result{Lines: []string{conv.String()}}
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentRates)
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return view.Result{Lines: []string{MsgInvalidAmount}, Error: true}
	case errors.Is(err, ErrRateMissing):
		code := strings.ToUpper(strings.TrimSpace(currency))
		logger.WarnContext(ctx, "Exchange rate missing", applog.FieldCurrency, code, applog.FieldError, err.Error())
		return view.Result{Lines: []string{"No exchange rate for " + code}, Error: true}
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Currency conversion failed", err,
			applog.ErrorTypeNetwork, applog.OpConvert, applog.LogFields{applog.FieldCurrency: currency})
		return view.Result{Lines: []string{MsgUnavailable}, Error: true}
	}
}
