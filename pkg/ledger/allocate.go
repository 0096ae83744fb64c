package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

// Allocation is one slice of a multi-loan payment.
type Allocation struct {
	LoanID    uuid.UUID       `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	Completed bool            `json:"completed"` // loan balance reached zero
}

// AllocateAcrossLoans splits one payment across a borrower's open loans,
// oldest first (FIFO by origination, CreatedAt then id). Each loan absorbs
// min(remaining, balance) until the amount is exhausted. The amount must not
// exceed the combined outstanding balances.
func AllocateAcrossLoans(loans []*models.Loan, payments []*models.Payment, amount decimal.Decimal) ([]Allocation, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}

	sorted := make([]*models.Loan, len(loans))
	copy(sorted, loans)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	total := decimal.Zero
	for _, l := range sorted {
		if bal := LoanBalance(l, payments); bal.GreaterThan(decimal.Zero) {
			total = total.Add(bal)
		}
	}
	if amount.GreaterThan(total) {
		return nil, ErrExceedsTotalDebt
	}

	var allocations []Allocation
	remaining := amount
	for _, l := range sorted {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		bal := LoanBalance(l, payments)
		if !bal.GreaterThan(decimal.Zero) {
			continue
		}
		take := decimal.Min(remaining, bal)
		allocations = append(allocations, Allocation{
			LoanID:    l.ID,
			Amount:    take,
			Completed: take.Equal(bal),
		})
		remaining = remaining.Sub(take)
	}
	return allocations, nil
}
