package models

import "github.com/shopspring/decimal"

func init() {
	// The service speaks bare JSON numbers for monetary amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType discriminates the payload shape of a Transaction.
type TransactionType string

const (
	TransactionExpenseIncome TransactionType = "EXPENSEINCOME"
	TransactionTransfer      TransactionType = "TRANSFER"
)

// Account is a single money account mirrored from the server. Accounts are
// always replaced as a whole collection, never patched field by field.
type Account struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	IncludeInTotal bool            `json:"includeInTotal"`
	ShowInList     bool            `json:"showInList"`
	Version        int64           `json:"version,omitempty"`
}

// Component is one leg of a transaction, tied to a single account.
// ID and Version are assigned by the server and absent on new components.
type Component struct {
	ID        *int64          `json:"id,omitempty"`
	Version   *int64          `json:"version,omitempty"`
	AccountID int64           `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transaction is an expense/income or transfer record.
type Transaction struct {
	ID          *int64          `json:"id,omitempty"`
	Version     *int64          `json:"version,omitempty"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Tags        []string        `json:"tags"`
	Components  []Component     `json:"components"`
}

// Currency is one entry of the server's currency list.
type Currency struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"displayName"`
}

// User is the current user's profile. Password is only ever set when the
// user is changing it; the server never echoes it back.
type User struct {
	Username        string `json:"username"`
	Password        string `json:"password,omitempty"`
	DefaultCurrency string `json:"defaultCurrency,omitempty"`
	Version         int64  `json:"version,omitempty"`
}

// ConfigurationVariable is a single admin setting, e.g. AllowRegistration.
type ConfigurationVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CurrencyTotal accumulates incoming and outgoing amounts for one currency.
// Negative holds the absolute value of the outgoing side.
type CurrencyTotal struct {
	Positive decimal.Decimal `json:"positiveAmount"`
	Negative decimal.Decimal `json:"negativeAmount"`
}
