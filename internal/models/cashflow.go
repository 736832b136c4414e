package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CashTransactionType categorizes the direction of a cash movement.
type CashTransactionType string

const (
	CashTxSpending CashTransactionType = "spending"
	CashTxIncome   CashTransactionType = "income"
	CashTxTransfer CashTransactionType = "transfer"
)

// validCashTransactionTypes lists all accepted transaction types.
var validCashTransactionTypes = map[CashTransactionType]bool{
	CashTxSpending: true,
	CashTxIncome:   true,
	CashTxTransfer: true,
}

// ValidCashTransactionType returns true if t is a valid cash transaction type.
func ValidCashTransactionType(t CashTransactionType) bool {
	return validCashTransactionTypes[t]
}

// CashTransaction is a spending, income or transfer between the user's accounts.
// PayAccount is empty for income; ReceiveAccount is empty for spending.
type CashTransaction struct {
	EventMeta
	Type           CashTransactionType `json:"type"`
	Amount         decimal.Decimal     `json:"amount"`
	Fee            decimal.Decimal     `json:"fee"`
	Currency       string              `json:"currency"`
	PayAccount     string              `json:"pay_account,omitempty"`
	ReceiveAccount string              `json:"receive_account,omitempty"`
}

// Ref returns the storage address of the transaction.
func (t *CashTransaction) Ref() EventRef {
	return EventRef{Kind: KindCash, ID: t.ID}
}

// Validate normalizes and checks the transaction's own fields.
func (t *CashTransaction) Validate() error {
	if err := t.EventMeta.validate(); err != nil {
		return err
	}
	if !ValidCashTransactionType(t.Type) {
		return invalid("type", "must be spending, income or transfer")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", "must be positive")
	}
	if t.Fee.IsNegative() {
		return invalid("fee", "must not be negative")
	}
	t.Currency = NormalizeCurrency(t.Currency)
	if err := ValidateCurrency(t.Currency); err != nil {
		return err
	}

	t.PayAccount = strings.TrimSpace(t.PayAccount)
	t.ReceiveAccount = strings.TrimSpace(t.ReceiveAccount)
	switch t.Type {
	case CashTxSpending:
		if t.PayAccount == "" {
			return invalid("pay_account", "is required for spending")
		}
		if t.ReceiveAccount != "" {
			return invalid("receive_account", "must be empty for spending")
		}
	case CashTxIncome:
		if t.ReceiveAccount == "" {
			return invalid("receive_account", "is required for income")
		}
		if t.PayAccount != "" {
			return invalid("pay_account", "must be empty for income")
		}
	case CashTxTransfer:
		if t.PayAccount == "" || t.ReceiveAccount == "" {
			return invalid("pay_account", "and receive_account are both required for transfers")
		}
		if t.PayAccount == t.ReceiveAccount {
			return invalid("receive_account", "must differ from pay_account")
		}
	}
	return nil
}

// Accounts lists the accounts the transaction touches.
func (t *CashTransaction) Accounts() []string {
	var out []string
	if t.PayAccount != "" {
		out = append(out, t.PayAccount)
	}
	if t.ReceiveAccount != "" {
		out = append(out, t.ReceiveAccount)
	}
	return out
}

// NetFlow is the transaction's contribution to net worth in its own currency.
// A transfer moves principal between the user's accounts, so only its fee
// leaves the books.
func (t *CashTransaction) NetFlow() decimal.Decimal {
	switch t.Type {
	case CashTxIncome:
		return t.Amount.Sub(t.Fee)
	case CashTxSpending:
		return t.Amount.Add(t.Fee).Neg()
	case CashTxTransfer:
		return t.Fee.Neg()
	}
	return decimal.Zero
}
