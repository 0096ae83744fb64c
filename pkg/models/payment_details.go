package models

import (
	"errors"
	"fmt"
	"time"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCheck    PaymentMethod = "check"
	MethodTransfer PaymentMethod = "transfer"
	MethodCredit   PaymentMethod = "credit"
)

var ErrDetailsMismatch = errors.New("payment details do not match payment method")

// PaymentDetails is a tagged union keyed by PaymentMethod. Exactly the
// branch matching the method may be set; cash carries no details.
type PaymentDetails struct {
	Check    *CheckDetails    `json:"check,omitempty"`
	Transfer *TransferDetails `json:"transfer,omitempty"`
	Credit   *CreditDetails   `json:"credit,omitempty"`
}

type CheckDetails struct {
	CheckNumber string     `json:"check_number"`
	BankCode    string     `json:"bank_code,omitempty"`
	Branch      string     `json:"branch,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type TransferDetails struct {
	BankCode      string `json:"bank_code"`
	BranchNumber  string `json:"branch_number"`
	AccountNumber string `json:"account_number"`
	Reference     string `json:"reference,omitempty"`
}

type CreditDetails struct {
	LastFourDigits string `json:"last_four_digits"`
	Installments   int    `json:"installments,omitempty"`
}

// Validate checks the union against the declared method before insert.
func (d *PaymentDetails) Validate(method PaymentMethod) error {
	if d == nil {
		return nil
	}
	set := 0
	if d.Check != nil {
		set++
	}
	if d.Transfer != nil {
		set++
	}
	if d.Credit != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: multiple detail branches set", ErrDetailsMismatch)
	}
	switch method {
	case MethodCash, "":
		if set != 0 {
			return fmt.Errorf("%w: cash payments carry no details", ErrDetailsMismatch)
		}
	case MethodCheck:
		if d.Check == nil && set > 0 {
			return fmt.Errorf("%w: expected check details", ErrDetailsMismatch)
		}
	case MethodTransfer:
		if d.Transfer == nil && set > 0 {
			return fmt.Errorf("%w: expected transfer details", ErrDetailsMismatch)
		}
	case MethodCredit:
		if d.Credit == nil && set > 0 {
			return fmt.Errorf("%w: expected credit details", ErrDetailsMismatch)
		}
	default:
		return fmt.Errorf("%w: unknown method %q", ErrDetailsMismatch, method)
	}
	return nil
}
