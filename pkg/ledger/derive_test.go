package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

func day(offset int) time.Time {
	return time.Now().AddDate(0, 0, offset)
}

func fixedLoan(amount int64, loanOffset, returnOffset int) *models.Loan {
	ret := day(returnOffset)
	return &models.Loan{
		ID:         uuid.New(),
		BorrowerID: uuid.New(),
		Amount:     decimal.NewFromInt(amount),
		LoanDate:   day(loanOffset),
		ReturnDate: &ret,
		Type:       models.LoanTypeFixed,
		CreatedAt:  time.Now(),
	}
}

func repayment(loanID uuid.UUID, amount int64, when time.Time) *models.Payment {
	return &models.Payment{
		ID:        uuid.New(),
		LoanID:    loanID,
		Amount:    decimal.NewFromInt(amount),
		Date:      when,
		Type:      models.PaymentTypePayment,
		CreatedAt: when,
	}
}

func TestLoanBalance(t *testing.T) {
	loan := fixedLoan(5000, -10, 30)
	payments := []*models.Payment{
		{ID: uuid.New(), LoanID: loan.ID, Amount: loan.Amount, Date: loan.LoanDate, Type: models.PaymentTypeLoan}, // disbursement, ignored
		repayment(loan.ID, 1000, day(-5)),
		repayment(loan.ID, 500, day(-3)),
		repayment(uuid.New(), 999, day(-2)), // other loan, ignored
	}

	bal := LoanBalance(loan, payments)
	if !bal.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("Expected balance 3500, got %s", bal)
	}

	// Derivation is idempotent
	if !LoanBalance(loan, payments).Equal(bal) {
		t.Error("Repeated calls must not change the result")
	}
}

func TestBalanceAfterPayment(t *testing.T) {
	loan := fixedLoan(1000, -30, 30)
	p1 := repayment(loan.ID, 200, day(-20))
	p2 := repayment(loan.ID, 300, day(-10))
	p3 := repayment(loan.ID, 100, day(-5))
	payments := []*models.Payment{p3, p1, p2} // deliberately unordered

	if got := BalanceAfterPayment(loan, payments, p1); !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Expected 800 after first payment, got %s", got)
	}
	if got := BalanceAfterPayment(loan, payments, p2); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected 500 after second payment, got %s", got)
	}
	if got := BalanceAfterPayment(loan, payments, p3); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected 400 after third payment, got %s", got)
	}
}

func TestPreviousPayments(t *testing.T) {
	loan := fixedLoan(1000, -30, 30)
	p1 := repayment(loan.ID, 200, day(-20))
	p2 := repayment(loan.ID, 300, day(-10))
	p3 := repayment(loan.ID, 100, day(-5))
	payments := []*models.Payment{p2, p3, p1}

	prev := PreviousPayments(loan, payments, p3)
	if len(prev) != 2 {
		t.Fatalf("Expected 2 previous payments, got %d", len(prev))
	}
	if prev[0].ID != p1.ID || prev[1].ID != p2.ID {
		t.Error("Previous payments must come back oldest first")
	}
	if len(PreviousPayments(loan, payments, p1)) != 0 {
		t.Error("First payment has no history")
	}
}

func TestCanAddPayment(t *testing.T) {
	loan := fixedLoan(1000, -10, 30)
	var payments []*models.Payment

	if !CanAddPayment(loan, payments, decimal.NewFromInt(1000)) {
		t.Error("Full balance should be payable")
	}
	if CanAddPayment(loan, payments, decimal.NewFromInt(1001)) {
		t.Error("Overpayment should be rejected")
	}
	if CanAddPayment(loan, payments, decimal.Zero) {
		t.Error("Zero amount should be rejected")
	}
	if CanAddPayment(loan, payments, decimal.NewFromInt(-5)) {
		t.Error("Negative amount should be rejected")
	}

	// Fully repaid: nothing more is payable
	payments = append(payments, repayment(loan.ID, 1000, day(-1)))
	if CanAddPayment(loan, payments, decimal.NewFromInt(1)) {
		t.Error("Fully repaid loan must reject any positive amount")
	}
}

func TestClassifyLoan(t *testing.T) {
	now := time.Now()

	future := fixedLoan(1000, 5, 40)
	if got := ClassifyLoan(future, nil, now); got != models.LoanStatusFuture {
		t.Errorf("Expected future, got %s", got)
	}

	active := fixedLoan(5000, 0, 30)
	if got := ClassifyLoan(active, nil, now); got != models.LoanStatusActive {
		t.Errorf("Expected active, got %s", got)
	}

	overdue := fixedLoan(1000, -60, -1)
	if got := ClassifyLoan(overdue, nil, now); got != models.LoanStatusOverdue {
		t.Errorf("Expected overdue, got %s", got)
	}

	// Flexible loans never go date-overdue
	flexible := fixedLoan(1000, -60, -1)
	flexible.Type = models.LoanTypeFlexible
	if got := ClassifyLoan(flexible, nil, now); got != models.LoanStatusActive {
		t.Errorf("Expected flexible loan active, got %s", got)
	}

	// Completed wins regardless of dates
	payments := []*models.Payment{repayment(overdue.ID, 1000, day(-2))}
	if got := ClassifyLoan(overdue, payments, now); got != models.LoanStatusCompleted {
		t.Errorf("Expected completed, got %s", got)
	}

	// Scenario from the books: 5000 loan, due in 30 days, one full payment
	scenario := fixedLoan(5000, 0, 30)
	if !LoanBalance(scenario, nil).Equal(decimal.NewFromInt(5000)) {
		t.Error("Expected opening balance 5000")
	}
	full := []*models.Payment{repayment(scenario.ID, 5000, now)}
	if got := ClassifyLoan(scenario, full, now); got != models.LoanStatusCompleted {
		t.Errorf("Expected completed after full repayment, got %s", got)
	}
}

func TestAllocateAcrossLoans(t *testing.T) {
	older := fixedLoan(100, -20, 40)
	older.CreatedAt = time.Now().AddDate(0, -2, 0)
	newer := fixedLoan(200, -10, 40)
	newer.CreatedAt = time.Now().AddDate(0, -1, 0)
	loans := []*models.Loan{newer, older} // unordered on purpose

	allocations, err := AllocateAcrossLoans(loans, nil, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("AllocateAcrossLoans failed: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("Expected 2 allocations, got %d", len(allocations))
	}
	if allocations[0].LoanID != older.ID || !allocations[0].Amount.Equal(decimal.NewFromInt(100)) || !allocations[0].Completed {
		t.Errorf("Expected oldest loan fully paid first, got %+v", allocations[0])
	}
	if allocations[1].LoanID != newer.ID || !allocations[1].Amount.Equal(decimal.NewFromInt(150)) || allocations[1].Completed {
		t.Errorf("Expected 150 against newer loan, still open, got %+v", allocations[1])
	}

	// Exceeding the combined balances is an error
	if _, err := AllocateAcrossLoans(loans, nil, decimal.NewFromInt(301)); err != ErrExceedsTotalDebt {
		t.Errorf("Expected ErrExceedsTotalDebt, got %v", err)
	}
	if _, err := AllocateAcrossLoans(loans, nil, decimal.Zero); err != ErrBadAmount {
		t.Errorf("Expected ErrBadAmount, got %v", err)
	}
}

func TestUpdateGuarantorStats(t *testing.T) {
	g := &models.Guarantor{ID: uuid.New(), Status: models.PersonStatusActive, TotalRisk: decimal.Zero}
	other := &models.Guarantor{ID: uuid.New(), Status: models.PersonStatusBlacklisted, TotalRisk: decimal.Zero}

	backed := fixedLoan(60000, -10, 30)
	backed.Guarantor1ID = &g.ID
	done := fixedLoan(10000, -10, 30)
	done.Guarantor2ID = &g.ID
	payments := []*models.Payment{repayment(done.ID, 10000, day(-1))}

	UpdateGuarantorStats([]*models.Guarantor{g, other}, []*models.Loan{backed, done}, payments, DefaultHighRiskThreshold, time.Now())

	if g.ActiveGuarantees != 1 {
		t.Errorf("Expected 1 active guarantee, got %d", g.ActiveGuarantees)
	}
	if !g.TotalRisk.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("Expected risk 60000, got %s", g.TotalRisk)
	}
	if g.Status != models.PersonStatusAtRisk {
		t.Errorf("Expected at_risk above threshold, got %s", g.Status)
	}

	// Blacklisted is sticky under recomputation
	if other.Status != models.PersonStatusBlacklisted {
		t.Errorf("Blacklisted status must survive recomputation, got %s", other.Status)
	}

	// Dropping below the threshold returns the guarantor to active
	UpdateGuarantorStats([]*models.Guarantor{g}, []*models.Loan{done}, payments, DefaultHighRiskThreshold, time.Now())
	if g.Status != models.PersonStatusActive || g.ActiveGuarantees != 0 {
		t.Errorf("Expected active with no guarantees, got %s/%d", g.Status, g.ActiveGuarantees)
	}
}
