package ledger

import (
	"sort"

	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

// LoanBalance computes principal minus all repayments applied to the loan.
// Disbursement rows (type "loan") are not repayments and do not count.
// No clamping: callers treat a result <= 0 as fully repaid.
func LoanBalance(loan *models.Loan, payments []*models.Payment) decimal.Decimal {
	bal := loan.Amount
	for _, p := range payments {
		if p.LoanID == loan.ID && p.Type == models.PaymentTypePayment {
			bal = bal.Sub(p.Amount)
		}
	}
	return bal
}

// paymentBefore orders repayments by date, then insertion time, then id.
// UUIDs carry no sequence, so CreatedAt is the insertion-order key.
func paymentBefore(a, b *models.Payment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// BalanceAfterPayment computes the loan balance immediately after the target
// payment was applied: principal minus every repayment up to and including
// the target in ledger order. Used for "balance as of this receipt".
func BalanceAfterPayment(loan *models.Loan, payments []*models.Payment, target *models.Payment) decimal.Decimal {
	bal := loan.Amount
	for _, p := range payments {
		if p.LoanID != loan.ID || p.Type != models.PaymentTypePayment {
			continue
		}
		if p.ID == target.ID || paymentBefore(p, target) {
			bal = bal.Sub(p.Amount)
		}
	}
	return bal
}

// PreviousPayments returns the repayments strictly before the target in
// ledger order, ascending. Used to print repayment history on a receipt.
func PreviousPayments(loan *models.Loan, payments []*models.Payment, target *models.Payment) []*models.Payment {
	var prev []*models.Payment
	for _, p := range payments {
		if p.LoanID != loan.ID || p.Type != models.PaymentTypePayment || p.ID == target.ID {
			continue
		}
		if paymentBefore(p, target) {
			prev = append(prev, p)
		}
	}
	sort.Slice(prev, func(i, j int) bool { return paymentBefore(prev[i], prev[j]) })
	return prev
}

// CanAddPayment reports whether a repayment of amount may be applied:
// positive and no larger than the current balance.
func CanAddPayment(loan *models.Loan, payments []*models.Payment, amount decimal.Decimal) bool {
	if !amount.GreaterThan(decimal.Zero) {
		return false
	}
	return amount.LessThanOrEqual(LoanBalance(loan, payments))
}
