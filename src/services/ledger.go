package services

import (
	"github.com/shopspring/decimal"
	"github.com/username/finsync/src/models"
)

// AccountLookup resolves an account by id, typically AccountsCache.Account.
type AccountLookup func(id int64) (models.Account, bool)

// IsBalanced validates the zero-sum invariant of a transaction before
// submission. Expense/income transactions carry no cross-component
// constraint; a transfer is balanced only if, per currency, incoming and
// outgoing amounts are numerically equal. Unknown types are rejected.
func IsBalanced(transaction models.Transaction, lookup AccountLookup) bool {
	switch transaction.Type {
	case models.TransactionExpenseIncome:
		return true
	case models.TransactionTransfer:
		for _, total := range totalsByCurrency(transaction, lookup) {
			if !total.Positive.Equal(total.Negative) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TotalsByCurrency reports the per-currency amounts of a transaction for
// display: the sum of components for expense/income, the larger of the two
// directions for a transfer.
func TotalsByCurrency(transaction models.Transaction, lookup AccountLookup) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for currency, total := range totalsByCurrency(transaction, lookup) {
		switch transaction.Type {
		case models.TransactionExpenseIncome:
			out[currency] = total.Positive
		case models.TransactionTransfer:
			if total.Positive.GreaterThan(total.Negative) {
				out[currency] = total.Positive
			} else {
				out[currency] = total.Negative
			}
		}
	}
	return out
}

// totalsByCurrency groups component amounts by the currency of their
// referenced account. For expense/income all amounts accumulate on the
// positive side; for transfers negative amounts accumulate, as absolute
// values, on the negative side. Components referencing an unknown account
// group under the empty currency.
func totalsByCurrency(transaction models.Transaction, lookup AccountLookup) map[string]*models.CurrencyTotal {
	totals := map[string]*models.CurrencyTotal{}
	for _, component := range transaction.Components {
		var currency string
		if account, ok := lookup(component.AccountID); ok {
			currency = account.Currency
		}
		total, ok := totals[currency]
		if !ok {
			total = &models.CurrencyTotal{}
			totals[currency] = total
		}
		if component.Amount.Sign() > 0 || transaction.Type == models.TransactionExpenseIncome {
			total.Positive = total.Positive.Add(component.Amount)
		} else if component.Amount.Sign() < 0 {
			total.Negative = total.Negative.Sub(component.Amount)
		}
	}
	return totals
}
