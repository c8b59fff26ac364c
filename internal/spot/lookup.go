package spot

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/view"
)

// MsgUnavailable is shown when a lookup fails for any reason.
const MsgUnavailable = "Unable to fetch crypto price"

// Totaler reports the current expense total.
type Totaler interface {
	Total() float64
}

// Quote relates an asset price to the expense total at lookup time. The price
// is used as displayed, rounded to cents.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	Total  float64
}

// Units is how many units of the asset the total buys at the displayed
// price, rounded once to four decimals. ok is false when the total is not a
// finite number or the price rounds to zero.
func (q Quote) Units() (decimal.Decimal, bool) {
	price := q.Price.Round(2)
	if math.IsNaN(q.Total) || math.IsInf(q.Total, 0) || !price.IsPositive() {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(q.Total).DivRound(price, 4), true
}

// Lines renders the two panel lines.
func (q Quote) Lines() []string {
	units := core.FormatFixed(math.NaN(), 4)
	if u, ok := q.Units(); ok {
		units = u.StringFixed(4)
	}
	return []string{
		fmt.Sprintf("1 %s = $%s USD", q.Symbol, q.Price.StringFixed(2)),
		fmt.Sprintf("Your total expenses ($%s) = %s %s", core.FormatFixed(q.Total, 2), units, q.Symbol),
	}
}

// Lookup answers crypto price queries against the live expense total. It
// never mutates the expense collection.
type Lookup struct {
	source PriceSource
	totals Totaler
}

func NewLookup(source PriceSource, totals Totaler) *Lookup {
	return &Lookup{source: source, totals: totals}
}

func (l *Lookup) Quote(ctx context.Context, symbol string) (Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return Quote{}, err
	}
	price, err := l.source.Spot(ctx, sym)
	if err != nil {
		return Quote{}, err
	}
	price = price.Round(2)
	if !price.IsPositive() {
		return Quote{}, fmt.Errorf("%w: %s price rounds to $0.00", ErrPriceUnavailable, sym)
	}
	return Quote{Symbol: sym, Price: price, Total: l.totals.Total()}, nil
}

// Render runs Quote and turns the outcome into panel text.
func (l *Lookup) Render(ctx context.Context, symbol string) view.Result {
	q, err := l.Quote(ctx, symbol)
	if err != nil {
		logger := applog.FromContext(ctx).WithComponent(applog.ComponentSpot)
		applog.NewStructuredLogger(logger).LogError(ctx, "Crypto price lookup failed", err,
			applog.ErrorTypeNetwork, applog.OpSpot, applog.LogFields{applog.FieldSymbol: symbol})
		return view.Result{Lines: []string{MsgUnavailable}, Error: true}
	}
	return view.Result{Lines: q.Lines()}
}
