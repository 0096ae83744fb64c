package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/guarantee"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shlomim/gemachbook/pkg/store"
	"github.com/shlomim/gemachbook/pkg/validate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger handles the business logic for the fund: loans, payments,
// guarantor debts, deposits and donations.
type Ledger struct {
	storage   store.Storage
	logger    *zap.Logger
	threshold decimal.Decimal // high-risk exposure threshold for guarantors
	now       func() time.Time
}

// NewLedger creates a Ledger over the given Storage implementation.
func NewLedger(s store.Storage, logger *zap.Logger, highRiskThreshold decimal.Decimal) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !highRiskThreshold.GreaterThan(decimal.Zero) {
		highRiskThreshold = DefaultHighRiskThreshold
	}
	return &Ledger{
		storage:   s,
		logger:    logger,
		threshold: highRiskThreshold,
		now:       time.Now,
	}
}

// ---- people ----

// CreateBorrower validates and stores a new borrower.
func (l *Ledger) CreateBorrower(b *models.Borrower) (*models.Borrower, error) {
	if b.IDNumber != "" && !validate.ValidIsraeliID(b.IDNumber) {
		return nil, ErrInvalidIDNumber
	}
	existing, err := l.storage.GetAllBorrowers()
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowers: %w", err)
	}
	for _, other := range existing {
		if b.IDNumber != "" && other.IDNumber == b.IDNumber && other.Status != models.PersonStatusBlacklisted {
			return nil, ErrDuplicateIDNumber
		}
	}
	b.ID = uuid.New()
	b.Status = models.PersonStatusActive
	b.CreatedAt = l.now()
	if err := l.storage.CreateBorrower(b); err != nil {
		return nil, fmt.Errorf("failed to store borrower: %w", err)
	}
	return b, nil
}

// CreateGuarantor validates and stores a new guarantor. ID number and phone
// must be unique among non-blacklisted guarantors.
func (l *Ledger) CreateGuarantor(g *models.Guarantor) (*models.Guarantor, error) {
	if g.IDNumber != "" && !validate.ValidIsraeliID(g.IDNumber) {
		return nil, ErrInvalidIDNumber
	}
	existing, err := l.storage.GetAllGuarantors()
	if err != nil {
		return nil, fmt.Errorf("failed to list guarantors: %w", err)
	}
	for _, other := range existing {
		if other.Status == models.PersonStatusBlacklisted {
			continue
		}
		if g.IDNumber != "" && other.IDNumber == g.IDNumber {
			return nil, ErrDuplicateIDNumber
		}
		if g.Phone != "" && other.Phone == g.Phone {
			return nil, ErrDuplicatePhone
		}
	}
	g.ID = uuid.New()
	g.Status = models.PersonStatusActive
	g.TotalRisk = decimal.Zero
	g.CreatedAt = l.now()
	if err := l.storage.CreateGuarantor(g); err != nil {
		return nil, fmt.Errorf("failed to store guarantor: %w", err)
	}
	return g, nil
}

// CreateDepositor validates and stores a new depositor.
func (l *Ledger) CreateDepositor(d *models.Depositor) (*models.Depositor, error) {
	if d.IDNumber != "" && !validate.ValidIsraeliID(d.IDNumber) {
		return nil, ErrInvalidIDNumber
	}
	d.ID = uuid.New()
	d.CreatedAt = l.now()
	if err := l.storage.CreateDepositor(d); err != nil {
		return nil, fmt.Errorf("failed to store depositor: %w", err)
	}
	return d, nil
}

// DeleteBorrower removes a borrower, rejected while any of their loans still
// carries a balance.
func (l *Ledger) DeleteBorrower(id uuid.UUID) error {
	loans, err := l.storage.GetLoansForBorrower(id)
	if err != nil {
		return err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return err
	}
	for _, loan := range loans {
		switch ClassifyLoan(loan, payments, l.now()) {
		case models.LoanStatusActive, models.LoanStatusOverdue, models.LoanStatusFuture:
			return ErrHasActiveLoans
		}
	}
	return l.storage.DeleteBorrower(id)
}

// DeleteGuarantor removes a guarantor, rejected while they still back an
// open loan or owe transferred debt.
func (l *Ledger) DeleteGuarantor(id uuid.UUID) error {
	g, err := l.storage.GetGuarantor(id)
	if err != nil {
		return err
	}
	loans, err := l.storage.GetAllLoans()
	if err != nil {
		return err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return err
	}
	for _, loan := range loans {
		if !loanNamesGuarantor(loan, g) {
			continue
		}
		switch ClassifyLoan(loan, payments, l.now()) {
		case models.LoanStatusActive, models.LoanStatusOverdue, models.LoanStatusFuture:
			return ErrHasGuarantees
		}
	}
	debts, err := l.storage.GetAllGuarantorDebts()
	if err != nil {
		return err
	}
	for _, d := range debts {
		if d.GuarantorID == id && d.Status != models.DebtStatusPaid {
			return ErrHasGuarantees
		}
	}
	return l.storage.DeleteGuarantor(id)
}

// ---- loans ----

// CreateLoan validates the loan invariants and the blacklist guard, stores
// the loan and records its disbursement row. Nothing is written when any
// guard fails.
func (l *Ledger) CreateLoan(loan *models.Loan) (*models.Loan, error) {
	if !loan.Amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	if loan.ReturnDate != nil && loan.ReturnDate.Before(loan.LoanDate) {
		return nil, ErrReturnBeforeLoan
	}
	if loan.AutoPayment && loan.AutoPaymentAmount.GreaterThan(loan.Amount) {
		return nil, ErrAutoPaymentTooBig
	}

	borrower, err := l.storage.GetBorrower(loan.BorrowerID)
	if err != nil {
		return nil, err
	}
	if IsBlacklisted(borrower.Status) {
		return nil, fmt.Errorf("borrower %s: %w", borrower.Name, ErrBlacklisted)
	}
	for _, gid := range loan.Guarantors() {
		g, err := l.storage.GetGuarantor(gid)
		if err != nil {
			return nil, err
		}
		if IsBlacklisted(g.Status) {
			return nil, fmt.Errorf("guarantor %s: %w", g.Name, ErrBlacklisted)
		}
	}

	loan.ID = uuid.New()
	if loan.Type == "" {
		loan.Type = models.LoanTypeFixed
	}
	loan.TransferredToGuarantors = false
	loan.CreatedAt = l.now()
	loan.UpdatedAt = loan.CreatedAt
	loan.Status = ClassifyLoan(loan, nil, l.now())

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	// Record disbursement
	disbursement := &models.Payment{
		ID:        uuid.New(),
		LoanID:    loan.ID,
		Amount:    loan.Amount,
		Date:      loan.LoanDate,
		Type:      models.PaymentTypeLoan,
		CreatedAt: l.now(),
	}
	if err := l.storage.CreatePayment(disbursement); err != nil {
		return nil, fmt.Errorf("failed to store disbursement row: %w", err)
	}

	l.logger.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("borrower_id", loan.BorrowerID.String()),
		zap.String("amount", loan.Amount.StringFixed(2)))
	return loan, nil
}

// GetLoan retrieves a loan with its status freshly derived.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetPaymentsForLoan(id)
	if err != nil {
		return nil, err
	}
	loan.Status = ClassifyLoan(loan, payments, l.now())
	return loan, nil
}

// GetAllLoans retrieves all loans with derived statuses.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	loans, err := l.storage.GetAllLoans()
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		loan.Status = ClassifyLoan(loan, payments, l.now())
	}
	return loans, nil
}

// OverdueLoans lists fixed loans whose return date has passed with money
// still outstanding.
func (l *Ledger) OverdueLoans() ([]*models.Loan, error) {
	loans, err := l.GetAllLoans()
	if err != nil {
		return nil, err
	}
	var overdue []*models.Loan
	for _, loan := range loans {
		if loan.Status == models.LoanStatusOverdue {
			overdue = append(overdue, loan)
		}
	}
	return overdue, nil
}

// LoanBalance returns the loan's current outstanding balance.
func (l *Ledger) LoanBalance(id uuid.UUID) (decimal.Decimal, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := l.storage.GetPaymentsForLoan(id)
	if err != nil {
		return decimal.Zero, err
	}
	return LoanBalance(loan, payments), nil
}

// AdvancedEditLoanAmount changes the otherwise-immutable principal. The new
// amount must stay positive and cover what was already repaid.
func (l *Ledger) AdvancedEditLoanAmount(id uuid.UUID, amount decimal.Decimal) (*models.Loan, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetPaymentsForLoan(id)
	if err != nil {
		return nil, err
	}
	repaid := loan.Amount.Sub(LoanBalance(loan, payments))
	if amount.LessThan(repaid) {
		return nil, ErrBelowRepaid
	}
	loan.Amount = amount
	loan.UpdatedAt = l.now()
	loan.Status = ClassifyLoan(loan, payments, l.now())
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}
	l.logger.Warn("loan principal edited",
		zap.String("loan_id", loan.ID.String()),
		zap.String("amount", amount.StringFixed(2)))
	return loan, nil
}

// DeleteLoan deletes a loan and its payment rows.
func (l *Ledger) DeleteLoan(id uuid.UUID) error {
	return l.storage.DeleteLoan(id)
}

// ---- payments ----

// PaymentRequest carries the caller-supplied fields of a repayment.
type PaymentRequest struct {
	Amount  decimal.Decimal
	Date    time.Time
	Method  models.PaymentMethod
	Details *models.PaymentDetails
	Notes   string
}

// RecordPayment applies a borrower repayment to a loan. Transferred loans
// reject the direct path; their money goes through
// RecordBorrowerPaymentAfterTransfer instead. The cached status is
// recomputed and persisted with the payment.
func (l *Ledger) RecordPayment(loanID uuid.UUID, req PaymentRequest) (*models.Payment, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.TransferredToGuarantors {
		return nil, ErrLoanTransferred
	}
	if err := req.Details.Validate(req.Method); err != nil {
		return nil, err
	}
	payments, err := l.storage.GetPaymentsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	if !CanAddPayment(loan, payments, req.Amount) {
		return nil, ErrExceedsBalance
	}

	when := req.Date
	if when.IsZero() {
		when = l.now()
	}
	p := &models.Payment{
		ID:        uuid.New(),
		LoanID:    loan.ID,
		Amount:    req.Amount,
		Date:      when,
		Type:      models.PaymentTypePayment,
		PaidBy:    models.PaidByBorrower,
		Notes:     req.Notes,
		Method:    req.Method,
		Details:   req.Details,
		CreatedAt: l.now(),
	}
	if err := l.storage.CreatePayment(p); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	loan.Status = ClassifyLoan(loan, append(payments, p), l.now())
	loan.UpdatedAt = l.now()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}

	l.logger.Info("payment recorded",
		zap.String("loan_id", loan.ID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("status", string(loan.Status)))
	return p, nil
}

// DeletePayment removes a repayment row and re-derives the loan status; a
// completed loan may revert to active or overdue. Disbursement rows are not
// deletable.
func (l *Ledger) DeletePayment(id uuid.UUID) error {
	p, err := l.storage.GetPayment(id)
	if err != nil {
		return err
	}
	if p.Type == models.PaymentTypeLoan {
		return ErrDisbursementRow
	}
	if err := l.storage.DeletePayment(id); err != nil {
		return err
	}

	loan, err := l.storage.GetLoan(p.LoanID)
	if err != nil {
		return err
	}
	payments, err := l.storage.GetPaymentsForLoan(p.LoanID)
	if err != nil {
		return err
	}
	loan.Status = ClassifyLoan(loan, payments, l.now())
	loan.UpdatedAt = l.now()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	l.logger.Info("payment deleted",
		zap.String("payment_id", id.String()),
		zap.String("loan_id", loan.ID.String()),
		zap.String("status", string(loan.Status)))
	return nil
}

// AllocatePayment splits one payment across the borrower's open loans,
// oldest first, persisting a repayment row per touched loan and refreshing
// each status.
func (l *Ledger) AllocatePayment(borrowerID uuid.UUID, amount decimal.Decimal, when time.Time) ([]Allocation, error) {
	loans, err := l.storage.GetLoansForBorrower(borrowerID)
	if err != nil {
		return nil, err
	}
	open := loans[:0]
	for _, loan := range loans {
		if !loan.TransferredToGuarantors {
			open = append(open, loan)
		}
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return nil, err
	}

	allocations, err := AllocateAcrossLoans(open, payments, amount)
	if err != nil {
		return nil, err
	}
	if when.IsZero() {
		when = l.now()
	}
	for _, a := range allocations {
		p := &models.Payment{
			ID:        uuid.New(),
			LoanID:    a.LoanID,
			Amount:    a.Amount,
			Date:      when,
			Type:      models.PaymentTypePayment,
			PaidBy:    models.PaidByBorrower,
			CreatedAt: l.now(),
		}
		if err := l.storage.CreatePayment(p); err != nil {
			return nil, fmt.Errorf("failed to store allocated payment: %w", err)
		}
		payments = append(payments, p)
		for _, loan := range open {
			if loan.ID == a.LoanID {
				loan.Status = ClassifyLoan(loan, payments, l.now())
				loan.UpdatedAt = l.now()
				if err := l.storage.UpdateLoan(loan); err != nil {
					return nil, fmt.Errorf("failed to update loan status: %w", err)
				}
			}
		}
	}
	l.logger.Info("payment allocated",
		zap.String("borrower_id", borrowerID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.Int("loans", len(allocations)))
	return allocations, nil
}

// ---- guarantor debts ----

// TransferLoanToGuarantors moves the loan's outstanding balance onto its
// guarantor(s) as GuarantorDebt records. A loan is transferable exactly
// once; afterwards borrower money is reconciled against the debts.
func (l *Ledger) TransferLoanToGuarantors(id uuid.UUID, transferredBy string, opts guarantee.TransferOptions) ([]*models.GuarantorDebt, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if loan.TransferredToGuarantors {
		return nil, ErrAlreadyTransferred
	}
	if len(loan.Guarantors()) == 0 {
		return nil, ErrNoGuarantors
	}
	payments, err := l.storage.GetPaymentsForLoan(id)
	if err != nil {
		return nil, err
	}
	outstanding := LoanBalance(loan, payments)
	if !outstanding.GreaterThan(decimal.Zero) {
		return nil, ErrNothingOutstanding
	}

	if opts.TransferDate.IsZero() {
		opts.TransferDate = l.now()
	}
	debts, err := guarantee.PlanTransfer(loan, outstanding, opts)
	if err != nil {
		return nil, err
	}
	for _, d := range debts {
		if err := l.storage.CreateGuarantorDebt(d); err != nil {
			return nil, fmt.Errorf("failed to store guarantor debt: %w", err)
		}
	}

	loan.TransferredToGuarantors = true
	loan.TransferDate = &opts.TransferDate
	loan.TransferredBy = transferredBy
	loan.TransferNotes = opts.Notes
	loan.UpdatedAt = l.now()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to flag loan as transferred: %w", err)
	}

	l.logger.Warn("loan transferred to guarantors",
		zap.String("loan_id", loan.ID.String()),
		zap.String("outstanding", outstanding.StringFixed(2)),
		zap.Int("debts", len(debts)))
	return debts, nil
}

// DebtBalance returns a guarantor debt's remaining amount.
func (l *Ledger) DebtBalance(debtID uuid.UUID) (decimal.Decimal, error) {
	debt, err := l.storage.GetGuarantorDebt(debtID)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := l.storage.GetPaymentsForDebt(debtID)
	if err != nil {
		return decimal.Zero, err
	}
	return guarantee.DebtBalance(debt, payments), nil
}

// RecordGuarantorDebtPayment applies a guarantor's payment to their
// transferred debt and persists the paid transition when it settles.
func (l *Ledger) RecordGuarantorDebtPayment(debtID uuid.UUID, amount decimal.Decimal, when time.Time) (*models.Payment, error) {
	debt, err := l.storage.GetGuarantorDebt(debtID)
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetPaymentsForDebt(debtID)
	if err != nil {
		return nil, err
	}
	name := ""
	if g, err := l.storage.GetGuarantor(debt.GuarantorID); err == nil {
		name = g.Name
	}
	if when.IsZero() {
		when = l.now()
	}
	p, err := guarantee.RecordDebtPayment(debt, name, amount, payments, when)
	if err != nil {
		return nil, err
	}
	if err := l.storage.CreatePayment(p); err != nil {
		return nil, fmt.Errorf("failed to store debt payment: %w", err)
	}
	if err := l.storage.UpdateGuarantorDebt(debt); err != nil {
		return nil, fmt.Errorf("failed to update debt status: %w", err)
	}
	l.logger.Info("guarantor debt payment",
		zap.String("debt_id", debt.ID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("status", string(debt.Status)))
	return p, nil
}

// RecordBorrowerPaymentAfterTransfer reconciles money from the original
// borrower against the loan's outstanding guarantor debts, oldest transfer
// first.
func (l *Ledger) RecordBorrowerPaymentAfterTransfer(loanID uuid.UUID, amount decimal.Decimal, when time.Time) (*guarantee.BorrowerPaymentResult, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	debts, err := l.storage.GetDebtsForLoan(loanID)
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return nil, err
	}
	if when.IsZero() {
		when = l.now()
	}
	res, err := guarantee.ApplyBorrowerPayment(loan, debts, payments, amount, when)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Payments {
		if err := l.storage.CreatePayment(p); err != nil {
			return nil, fmt.Errorf("failed to store reconciled payment: %w", err)
		}
	}
	for _, d := range res.Settled {
		if err := l.storage.UpdateGuarantorDebt(d); err != nil {
			return nil, fmt.Errorf("failed to update settled debt: %w", err)
		}
	}
	l.logger.Info("borrower payment reconciled after transfer",
		zap.String("loan_id", loanID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.Int("debts_settled", len(res.Settled)))
	return res, nil
}

// SweepOverdueDebts finds active debts past their due or next installment
// date, marks them overdue and returns the list for blacklist review.
func (l *Ledger) SweepOverdueDebts() ([]guarantee.OverdueEntry, error) {
	debts, err := l.storage.GetAllGuarantorDebts()
	if err != nil {
		return nil, err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return nil, err
	}
	guarantors, err := l.storage.GetAllGuarantors()
	if err != nil {
		return nil, err
	}
	entries := guarantee.OverdueDebts(debts, payments, guarantors, l.now())
	for _, e := range entries {
		e.Debt.Status = models.DebtStatusOverdue
		if err := l.storage.UpdateGuarantorDebt(e.Debt); err != nil {
			return nil, fmt.Errorf("failed to mark debt overdue: %w", err)
		}
	}
	if len(entries) > 0 {
		l.logger.Warn("overdue guarantor debts", zap.Int("count", len(entries)))
	}
	return entries, nil
}

// BlacklistOverdueGuarantors promotes the guarantors behind the overdue list
// to blacklisted and persists the changes. Idempotent; returns the number
// actually changed.
func (l *Ledger) BlacklistOverdueGuarantors(entries []guarantee.OverdueEntry) (int, error) {
	changed := guarantee.BlacklistOverdue(entries)
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.Guarantor == nil || seen[e.Guarantor.ID] {
			continue
		}
		seen[e.Guarantor.ID] = true
		if err := l.storage.UpdateGuarantor(e.Guarantor); err != nil {
			return changed, fmt.Errorf("failed to update guarantor: %w", err)
		}
	}
	if changed > 0 {
		l.logger.Warn("guarantors blacklisted", zap.Int("count", changed))
	}
	return changed, nil
}

// RefreshGuarantorStats recomputes every guarantor's exposure and risk
// status and persists the results.
func (l *Ledger) RefreshGuarantorStats() error {
	guarantors, err := l.storage.GetAllGuarantors()
	if err != nil {
		return err
	}
	loans, err := l.storage.GetAllLoans()
	if err != nil {
		return err
	}
	payments, err := l.storage.GetAllPayments()
	if err != nil {
		return err
	}
	UpdateGuarantorStats(guarantors, loans, payments, l.threshold, l.now())
	for _, g := range guarantors {
		if err := l.storage.UpdateGuarantor(g); err != nil {
			return fmt.Errorf("failed to update guarantor stats: %w", err)
		}
	}
	return nil
}

// ---- deposits & donations ----

// RecordDeposit stores a new depositor deposit.
func (l *Ledger) RecordDeposit(depositorID uuid.UUID, amount decimal.Decimal, date time.Time) (*models.Deposit, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	if dateOnly(date).After(dateOnly(l.now())) {
		return nil, ErrFutureDate
	}
	if _, err := l.storage.GetDepositor(depositorID); err != nil {
		return nil, err
	}
	d := &models.Deposit{
		ID:          uuid.New(),
		DepositorID: depositorID,
		Amount:      amount,
		Date:        date,
		Status:      models.DepositStatusActive,
		CreatedAt:   l.now(),
	}
	if err := l.storage.CreateDeposit(d); err != nil {
		return nil, fmt.Errorf("failed to store deposit: %w", err)
	}
	return d, nil
}

// WithdrawDeposit flips an active deposit to withdrawn, once.
func (l *Ledger) WithdrawDeposit(id uuid.UUID) (*models.Deposit, error) {
	d, err := l.storage.GetDeposit(id)
	if err != nil {
		return nil, err
	}
	if d.Status == models.DepositStatusWithdrawn {
		return nil, ErrDepositWithdrawn
	}
	d.Status = models.DepositStatusWithdrawn
	if err := l.storage.UpdateDeposit(d); err != nil {
		return nil, fmt.Errorf("failed to update deposit: %w", err)
	}
	return d, nil
}

// RecordDonation stores a donation.
func (l *Ledger) RecordDonation(donorName string, amount decimal.Decimal, date time.Time, notes string) (*models.Donation, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrBadAmount
	}
	if dateOnly(date).After(dateOnly(l.now())) {
		return nil, ErrFutureDate
	}
	d := &models.Donation{
		ID:        uuid.New(),
		DonorName: donorName,
		Amount:    amount,
		Date:      date,
		Notes:     notes,
		CreatedAt: l.now(),
	}
	if err := l.storage.CreateDonation(d); err != nil {
		return nil, fmt.Errorf("failed to store donation: %w", err)
	}
	return d, nil
}
