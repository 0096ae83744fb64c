package ledger

import (
	"time"

	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

func dateOnly(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// ClassifyLoan derives the loan's temporal state from its dates and computed
// balance. Status is a pure view over (loan, payments, today); the cached
// column on Loan is only ever written with this function's result.
//
//	completed: balance <= 0, regardless of dates
//	future:    loan date after today
//	overdue:   fixed loan whose return date has passed
//	active:    everything else (flexible loans never go date-overdue)
func ClassifyLoan(loan *models.Loan, payments []*models.Payment, today time.Time) models.LoanStatus {
	if !LoanBalance(loan, payments).GreaterThan(decimal.Zero) {
		return models.LoanStatusCompleted
	}
	d := dateOnly(today)
	if dateOnly(loan.LoanDate).After(d) {
		return models.LoanStatusFuture
	}
	if loan.Type == models.LoanTypeFixed && loan.ReturnDate != nil && dateOnly(*loan.ReturnDate).Before(d) {
		return models.LoanStatusOverdue
	}
	return models.LoanStatusActive
}

func IsLoanFuture(loan *models.Loan, payments []*models.Payment, today time.Time) bool {
	return ClassifyLoan(loan, payments, today) == models.LoanStatusFuture
}

func IsLoanActive(loan *models.Loan, payments []*models.Payment, today time.Time) bool {
	return ClassifyLoan(loan, payments, today) == models.LoanStatusActive
}

func IsLoanOverdue(loan *models.Loan, payments []*models.Payment, today time.Time) bool {
	return ClassifyLoan(loan, payments, today) == models.LoanStatusOverdue
}
