// Package guarantee tracks debt transferred from a defaulting borrower onto
// the loan's guarantor(s): creation, installment scheduling, balance
// derivation, payment application and status transitions.
package guarantee

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrBadAmount      = errors.New("amount must be positive")
	ErrExceedsBalance = errors.New("payment exceeds outstanding debt balance")
	ErrNoGuarantors   = errors.New("no guarantors to transfer to")
	ErrNotTransferred = errors.New("loan was not transferred to guarantors")
	ErrBadSchedule    = errors.New("installment schedule requires a count and first due date")
)

// TransferOptions configures the debts created by PlanTransfer.
type TransferOptions struct {
	PaymentType       models.DebtPaymentType
	DueDate           time.Time // single: the one due date; installments: first installment date
	InstallmentsCount int
	TransferDate      time.Time
	Notes             string
}

// PlanTransfer builds one GuarantorDebt per guarantor on the loan, splitting
// the outstanding balance equally; with two guarantors an odd remainder cent
// lands on guarantor 1. Installment schedules are monthly from DueDate, with
// the per-installment amount rounded to agorot.
func PlanTransfer(loan *models.Loan, outstanding decimal.Decimal, opts TransferOptions) ([]*models.GuarantorDebt, error) {
	ids := loan.Guarantors()
	if len(ids) == 0 {
		return nil, ErrNoGuarantors
	}
	if !outstanding.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	if opts.PaymentType == models.DebtPaymentInstallments && (opts.InstallmentsCount < 1 || opts.DueDate.IsZero()) {
		return nil, ErrBadSchedule
	}

	shares := splitEqually(outstanding, len(ids))
	debts := make([]*models.GuarantorDebt, 0, len(ids))
	for i, gid := range ids {
		d := &models.GuarantorDebt{
			ID:                 uuid.New(),
			GuarantorID:        gid,
			OriginalLoanID:     loan.ID,
			OriginalBorrowerID: loan.BorrowerID,
			Amount:             shares[i],
			TransferDate:       opts.TransferDate,
			Status:             models.DebtStatusActive,
			PaymentType:        opts.PaymentType,
			Notes:              opts.Notes,
			CreatedAt:          time.Now(),
		}
		switch opts.PaymentType {
		case models.DebtPaymentInstallments:
			d.InstallmentsCount = opts.InstallmentsCount
			d.InstallmentDates = monthlyDates(opts.DueDate, opts.InstallmentsCount)
			d.InstallmentAmount = shares[i].Div(decimal.NewFromInt(int64(opts.InstallmentsCount))).Round(2)
		default:
			d.PaymentType = models.DebtPaymentSingle
			due := opts.DueDate
			d.DueDate = &due
		}
		debts = append(debts, d)
	}
	return debts, nil
}

// splitEqually divides amount into n shares rounded to two places, the first
// share absorbing the rounding remainder.
func splitEqually(amount decimal.Decimal, n int) []decimal.Decimal {
	share := amount.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	shares := make([]decimal.Decimal, n)
	rest := amount
	for i := 1; i < n; i++ {
		shares[i] = share
		rest = rest.Sub(share)
	}
	shares[0] = rest
	return shares
}

func monthlyDates(first time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = first.AddDate(0, i, 0)
	}
	return dates
}

// DebtBalance computes the debt's remaining amount: original amount minus
// every payment linked to it via GuarantorDebtID.
func DebtBalance(debt *models.GuarantorDebt, payments []*models.Payment) decimal.Decimal {
	bal := debt.Amount
	for _, p := range payments {
		if p.GuarantorDebtID != nil && *p.GuarantorDebtID == debt.ID {
			bal = bal.Sub(p.Amount)
		}
	}
	return bal
}

// RecordDebtPayment validates and builds the repayment row for a guarantor
// paying down a transferred debt. The row is linked to the original loan so
// reporting against that loan stays unified. When the remaining balance
// reaches zero the debt status flips to paid on the supplied record.
func RecordDebtPayment(debt *models.GuarantorDebt, guarantorName string, amount decimal.Decimal, payments []*models.Payment, when time.Time) (*models.Payment, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	bal := DebtBalance(debt, payments)
	if amount.GreaterThan(bal) {
		return nil, fmt.Errorf("%w: balance %s", ErrExceedsBalance, bal.StringFixed(2))
	}

	debtID := debt.ID
	guarantorID := debt.GuarantorID
	p := &models.Payment{
		ID:              uuid.New(),
		LoanID:          debt.OriginalLoanID,
		Amount:          amount,
		Date:            when,
		Type:            models.PaymentTypePayment,
		PaidBy:          models.PaidByGuarantor,
		GuarantorID:     &guarantorID,
		GuarantorName:   guarantorName,
		GuarantorDebtID: &debtID,
		CreatedAt:       time.Now(),
	}
	if !bal.Sub(amount).GreaterThan(decimal.Zero) {
		debt.Status = models.DebtStatusPaid
	}
	return p, nil
}

// BorrowerPaymentResult reports how a post-transfer borrower payment was
// reconciled against the loan's guarantor debts.
type BorrowerPaymentResult struct {
	Payments []*models.Payment       `json:"payments"`
	Settled  []*models.GuarantorDebt `json:"settled"` // debts that reached paid
	Message  string                  `json:"message"`
}

// ApplyBorrowerPayment reconciles money arriving from the original borrower
// after the loan was transferred. It is applied sequentially across the
// loan's open debts, oldest transfer first (TransferDate then id), reducing
// each to zero before touching the next — the same FIFO the multi-loan
// allocator uses. The amount must not exceed the combined debt balances.
func ApplyBorrowerPayment(loan *models.Loan, debts []*models.GuarantorDebt, payments []*models.Payment, amount decimal.Decimal, when time.Time) (*BorrowerPaymentResult, error) {
	if !loan.TransferredToGuarantors {
		return nil, ErrNotTransferred
	}
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}

	open := make([]*models.GuarantorDebt, 0, len(debts))
	total := decimal.Zero
	for _, d := range debts {
		if d.OriginalLoanID != loan.ID || d.Status == models.DebtStatusPaid {
			continue
		}
		if bal := DebtBalance(d, payments); bal.GreaterThan(decimal.Zero) {
			open = append(open, d)
			total = total.Add(bal)
		}
	}
	if amount.GreaterThan(total) {
		return nil, fmt.Errorf("%w: outstanding %s", ErrExceedsBalance, total.StringFixed(2))
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].TransferDate.Equal(open[j].TransferDate) {
			return open[i].TransferDate.Before(open[j].TransferDate)
		}
		return open[i].ID.String() < open[j].ID.String()
	})

	res := &BorrowerPaymentResult{}
	remaining := amount
	for _, d := range open {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		bal := DebtBalance(d, payments)
		take := decimal.Min(remaining, bal)
		debtID := d.ID
		p := &models.Payment{
			ID:              uuid.New(),
			LoanID:          loan.ID,
			Amount:          take,
			Date:            when,
			Type:            models.PaymentTypePayment,
			PaidBy:          models.PaidByBorrower,
			GuarantorDebtID: &debtID,
			Notes:           "borrower payment after transfer",
			CreatedAt:       time.Now(),
		}
		res.Payments = append(res.Payments, p)
		if take.Equal(bal) {
			d.Status = models.DebtStatusPaid
			res.Settled = append(res.Settled, d)
		}
		remaining = remaining.Sub(take)
	}
	res.Message = fmt.Sprintf("applied %s across %d guarantor debt(s)", amount.StringFixed(2), len(res.Payments))
	return res, nil
}
