package log

import "spendlog/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldIndex       = "index"
	FieldCount       = "count"
	FieldExpenseName = "expense_name"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldCurrency    = "currency"
	FieldSymbol      = "symbol"
	FieldSequence    = "sequence"
	FieldBackend     = "backend"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentStorage   = "storage"
	ComponentRates     = "rates"
	ComponentSpot      = "spot"
	ComponentAMQP      = "amqp"
	ComponentFeed      = "feed"
	ComponentRateLimit = "rate_limit"
	ComponentCLI       = "cli"
)

// Operation names
const (
	OpLoad     = "load"
	OpAdd      = "add"
	OpDelete   = "delete"
	OpPersist  = "persist"
	OpConvert  = "convert"
	OpSpot     = "spot_price"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Error type categories
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeSchema        = "schema_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error message and its category.
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

// WithExpense adds the fields of one expense record. Non-finite amounts are
// logged by their display form.
func (f LogFields) WithExpense(e core.Expense) LogFields {
	f[FieldExpenseName] = e.Name
	f[FieldAmount] = e.Amount.String()
	f[FieldCategory] = e.Category
	return f
}

func (f LogFields) WithIndex(index int) LogFields {
	f[FieldIndex] = index
	return f
}

func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
