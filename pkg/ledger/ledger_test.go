package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/guarantee"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shlomim/gemachbook/pkg/store"
	"github.com/shopspring/decimal"
)

// MockStore is a simple in-memory implementation of the Storage interface
// for testing.
type MockStore struct {
	borrowers  map[uuid.UUID]*models.Borrower
	guarantors map[uuid.UUID]*models.Guarantor
	depositors map[uuid.UUID]*models.Depositor
	loans      map[uuid.UUID]*models.Loan
	payments   []*models.Payment
	debts      map[uuid.UUID]*models.GuarantorDebt
	deposits   map[uuid.UUID]*models.Deposit
	donations  []*models.Donation
}

func NewMockStore() *MockStore {
	return &MockStore{
		borrowers:  make(map[uuid.UUID]*models.Borrower),
		guarantors: make(map[uuid.UUID]*models.Guarantor),
		depositors: make(map[uuid.UUID]*models.Depositor),
		loans:      make(map[uuid.UUID]*models.Loan),
		debts:      make(map[uuid.UUID]*models.GuarantorDebt),
		deposits:   make(map[uuid.UUID]*models.Deposit),
	}
}

func (m *MockStore) CreateBorrower(b *models.Borrower) error { m.borrowers[b.ID] = b; return nil }
func (m *MockStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	b, ok := m.borrowers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}
func (m *MockStore) UpdateBorrower(b *models.Borrower) error { m.borrowers[b.ID] = b; return nil }
func (m *MockStore) DeleteBorrower(id uuid.UUID) error       { delete(m.borrowers, id); return nil }
func (m *MockStore) GetAllBorrowers() ([]*models.Borrower, error) {
	out := []*models.Borrower{}
	for _, b := range m.borrowers {
		out = append(out, b)
	}
	return out, nil
}

func (m *MockStore) CreateGuarantor(g *models.Guarantor) error { m.guarantors[g.ID] = g; return nil }
func (m *MockStore) GetGuarantor(id uuid.UUID) (*models.Guarantor, error) {
	g, ok := m.guarantors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}
func (m *MockStore) UpdateGuarantor(g *models.Guarantor) error { m.guarantors[g.ID] = g; return nil }
func (m *MockStore) DeleteGuarantor(id uuid.UUID) error        { delete(m.guarantors, id); return nil }
func (m *MockStore) GetAllGuarantors() ([]*models.Guarantor, error) {
	out := []*models.Guarantor{}
	for _, g := range m.guarantors {
		out = append(out, g)
	}
	return out, nil
}

func (m *MockStore) CreateDepositor(d *models.Depositor) error { m.depositors[d.ID] = d; return nil }
func (m *MockStore) GetDepositor(id uuid.UUID) (*models.Depositor, error) {
	d, ok := m.depositors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}
func (m *MockStore) GetAllDepositors() ([]*models.Depositor, error) {
	out := []*models.Depositor{}
	for _, d := range m.depositors {
		out = append(out, d)
	}
	return out, nil
}

func (m *MockStore) CreateLoan(loan *models.Loan) error { m.loans[loan.ID] = loan; return nil }
func (m *MockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return l, nil
}
func (m *MockStore) UpdateLoan(loan *models.Loan) error { m.loans[loan.ID] = loan; return nil }
func (m *MockStore) DeleteLoan(id uuid.UUID) error      { delete(m.loans, id); return nil }
func (m *MockStore) GetAllLoans() ([]*models.Loan, error) {
	out := []*models.Loan{}
	for _, l := range m.loans {
		out = append(out, l)
	}
	return out, nil
}
func (m *MockStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	out := []*models.Loan{}
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MockStore) CreatePayment(p *models.Payment) error { m.payments = append(m.payments, p); return nil }
func (m *MockStore) GetPayment(id uuid.UUID) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}
func (m *MockStore) DeletePayment(id uuid.UUID) error {
	for i, p := range m.payments {
		if p.ID == id {
			m.payments = append(m.payments[:i], m.payments[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
func (m *MockStore) GetAllPayments() ([]*models.Payment, error) { return m.payments, nil }
func (m *MockStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	out := []*models.Payment{}
	for _, p := range m.payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *MockStore) GetPaymentsForDebt(debtID uuid.UUID) ([]*models.Payment, error) {
	out := []*models.Payment{}
	for _, p := range m.payments {
		if p.GuarantorDebtID != nil && *p.GuarantorDebtID == debtID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockStore) CreateGuarantorDebt(d *models.GuarantorDebt) error { m.debts[d.ID] = d; return nil }
func (m *MockStore) GetGuarantorDebt(id uuid.UUID) (*models.GuarantorDebt, error) {
	d, ok := m.debts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}
func (m *MockStore) UpdateGuarantorDebt(d *models.GuarantorDebt) error { m.debts[d.ID] = d; return nil }
func (m *MockStore) GetAllGuarantorDebts() ([]*models.GuarantorDebt, error) {
	out := []*models.GuarantorDebt{}
	for _, d := range m.debts {
		out = append(out, d)
	}
	return out, nil
}
func (m *MockStore) GetDebtsForLoan(loanID uuid.UUID) ([]*models.GuarantorDebt, error) {
	out := []*models.GuarantorDebt{}
	for _, d := range m.debts {
		if d.OriginalLoanID == loanID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockStore) CreateDeposit(d *models.Deposit) error { m.deposits[d.ID] = d; return nil }
func (m *MockStore) GetDeposit(id uuid.UUID) (*models.Deposit, error) {
	d, ok := m.deposits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}
func (m *MockStore) UpdateDeposit(d *models.Deposit) error { m.deposits[d.ID] = d; return nil }
func (m *MockStore) GetAllDeposits() ([]*models.Deposit, error) {
	out := []*models.Deposit{}
	for _, d := range m.deposits {
		out = append(out, d)
	}
	return out, nil
}

func (m *MockStore) CreateDonation(d *models.Donation) error { m.donations = append(m.donations, d); return nil }
func (m *MockStore) GetAllDonations() ([]*models.Donation, error) { return m.donations, nil }

func (m *MockStore) Close() error { return nil }

func newTestLedger() (*Ledger, *MockStore) {
	m := NewMockStore()
	return NewLedger(m, nil, decimal.Zero), m
}

func addBorrower(m *MockStore, status models.PersonStatus) *models.Borrower {
	b := &models.Borrower{ID: uuid.New(), Name: "Cohen", Status: status, CreatedAt: time.Now()}
	m.borrowers[b.ID] = b
	return b
}

func addGuarantor(m *MockStore, status models.PersonStatus) *models.Guarantor {
	g := &models.Guarantor{ID: uuid.New(), Name: "Levi", Status: status, TotalRisk: decimal.Zero, CreatedAt: time.Now()}
	m.guarantors[g.ID] = g
	return g
}

func TestCreateLoan(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 1, 0)
	loan, err := l.CreateLoan(&models.Loan{
		BorrowerID: b.ID,
		Amount:     decimal.NewFromInt(5000),
		LoanDate:   time.Now(),
		ReturnDate: &ret,
		Type:       models.LoanTypeFixed,
	})
	if err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}
	if loan.Status != models.LoanStatusActive {
		t.Errorf("Expected active, got %s", loan.Status)
	}
	if len(m.payments) != 1 || m.payments[0].Type != models.PaymentTypeLoan {
		t.Errorf("Expected 1 disbursement row, got %d payments", len(m.payments))
	}
	if !m.payments[0].Amount.Equal(loan.Amount) {
		t.Errorf("Disbursement must equal principal, got %s", m.payments[0].Amount)
	}
}

func TestCreateLoanRejectsBlacklistedBorrower(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusBlacklisted)

	_, err := l.CreateLoan(&models.Loan{
		BorrowerID: b.ID,
		Amount:     decimal.NewFromInt(1000),
		LoanDate:   time.Now(),
		Type:       models.LoanTypeFlexible,
	})
	if !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("Expected ErrBlacklisted, got %v", err)
	}
	// Nothing written
	if len(m.loans) != 0 || len(m.payments) != 0 {
		t.Error("No loan or payment row may be created on rejection")
	}
}

func TestCreateLoanRejectsBlacklistedGuarantor(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)
	g := addGuarantor(m, models.PersonStatusBlacklisted)

	_, err := l.CreateLoan(&models.Loan{
		BorrowerID:   b.ID,
		Amount:       decimal.NewFromInt(1000),
		LoanDate:     time.Now(),
		Type:         models.LoanTypeFlexible,
		Guarantor1ID: &g.ID,
	})
	if !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("Expected ErrBlacklisted, got %v", err)
	}
	if len(m.loans) != 0 {
		t.Error("No loan row may be created on rejection")
	}
}

func TestCreateLoanInvariants(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	if _, err := l.CreateLoan(&models.Loan{BorrowerID: b.ID, Amount: decimal.Zero, LoanDate: time.Now()}); !errors.Is(err, ErrBadAmount) {
		t.Errorf("Expected ErrBadAmount, got %v", err)
	}

	ret := time.Now().AddDate(0, 0, -1)
	if _, err := l.CreateLoan(&models.Loan{BorrowerID: b.ID, Amount: decimal.NewFromInt(100), LoanDate: time.Now(), ReturnDate: &ret}); !errors.Is(err, ErrReturnBeforeLoan) {
		t.Errorf("Expected ErrReturnBeforeLoan, got %v", err)
	}

	if _, err := l.CreateLoan(&models.Loan{
		BorrowerID:        b.ID,
		Amount:            decimal.NewFromInt(100),
		LoanDate:          time.Now(),
		AutoPayment:       true,
		AutoPaymentAmount: decimal.NewFromInt(200),
	}); !errors.Is(err, ErrAutoPaymentTooBig) {
		t.Errorf("Expected ErrAutoPaymentTooBig, got %v", err)
	}
}

func TestRecordPaymentLifecycle(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 0, 30)
	loan, _ := l.CreateLoan(&models.Loan{
		BorrowerID: b.ID,
		Amount:     decimal.NewFromInt(5000),
		LoanDate:   time.Now(),
		ReturnDate: &ret,
		Type:       models.LoanTypeFixed,
	})

	bal, _ := l.LoanBalance(loan.ID)
	if !bal.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected opening balance 5000, got %s", bal)
	}

	// Details must match the declared method
	if _, err := l.RecordPayment(loan.ID, PaymentRequest{
		Amount:  decimal.NewFromInt(100),
		Method:  models.MethodCash,
		Details: &models.PaymentDetails{Check: &models.CheckDetails{CheckNumber: "17"}},
	}); !errors.Is(err, models.ErrDetailsMismatch) {
		t.Errorf("Expected ErrDetailsMismatch, got %v", err)
	}

	p, err := l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(5000)})
	if err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}
	if p.Type != models.PaymentTypePayment || p.PaidBy != models.PaidByBorrower {
		t.Error("Repayment row must be a borrower payment")
	}
	if loan.Status != models.LoanStatusCompleted {
		t.Errorf("Expected completed, got %s", loan.Status)
	}

	// Fully repaid: further payments rejected
	if _, err := l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(1)}); !errors.Is(err, ErrExceedsBalance) {
		t.Errorf("Expected ErrExceedsBalance, got %v", err)
	}
}

func TestDeletePaymentRevertsStatus(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 0, 30)
	loan, _ := l.CreateLoan(&models.Loan{
		BorrowerID: b.ID,
		Amount:     decimal.NewFromInt(1000),
		LoanDate:   time.Now(),
		ReturnDate: &ret,
		Type:       models.LoanTypeFixed,
	})
	p, _ := l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(1000)})
	if loan.Status != models.LoanStatusCompleted {
		t.Fatalf("Expected completed, got %s", loan.Status)
	}

	if err := l.DeletePayment(p.ID); err != nil {
		t.Fatalf("Failed to delete payment: %v", err)
	}
	if loan.Status != models.LoanStatusActive {
		t.Errorf("Expected completed to revert to active, got %s", loan.Status)
	}

	// The disbursement row itself is not deletable
	var disbursement *models.Payment
	for _, row := range m.payments {
		if row.Type == models.PaymentTypeLoan {
			disbursement = row
		}
	}
	if err := l.DeletePayment(disbursement.ID); !errors.Is(err, ErrDisbursementRow) {
		t.Errorf("Expected ErrDisbursementRow, got %v", err)
	}
}

func TestAllocatePayment(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 1, 0)
	older := &models.Loan{ID: uuid.New(), BorrowerID: b.ID, Amount: decimal.NewFromInt(100), LoanDate: time.Now().AddDate(0, -2, 0), ReturnDate: &ret, Type: models.LoanTypeFixed, CreatedAt: time.Now().AddDate(0, -2, 0)}
	newer := &models.Loan{ID: uuid.New(), BorrowerID: b.ID, Amount: decimal.NewFromInt(200), LoanDate: time.Now().AddDate(0, -1, 0), ReturnDate: &ret, Type: models.LoanTypeFixed, CreatedAt: time.Now().AddDate(0, -1, 0)}
	m.loans[older.ID] = older
	m.loans[newer.ID] = newer

	allocations, err := l.AllocatePayment(b.ID, decimal.NewFromInt(250), time.Now())
	if err != nil {
		t.Fatalf("Failed to allocate: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("Expected 2 allocations, got %d", len(allocations))
	}
	if older.Status != models.LoanStatusCompleted {
		t.Errorf("Expected older loan completed, got %s", older.Status)
	}
	if newer.Status != models.LoanStatusActive {
		t.Errorf("Expected newer loan active, got %s", newer.Status)
	}
	payments, _ := m.GetPaymentsForLoan(newer.ID)
	if !LoanBalance(newer, payments).Equal(decimal.NewFromInt(50)) {
		t.Error("Expected 50 left on the newer loan")
	}
}

func TestTransferLoanToGuarantors(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)
	g1 := addGuarantor(m, models.PersonStatusActive)
	g2 := addGuarantor(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 0, -5)
	loan, _ := l.CreateLoan(&models.Loan{
		BorrowerID:   b.ID,
		Amount:       decimal.NewFromInt(4000),
		LoanDate:     time.Now().AddDate(0, -3, 0),
		ReturnDate:   &ret,
		Type:         models.LoanTypeFixed,
		Guarantor1ID: &g1.ID,
		Guarantor2ID: &g2.ID,
	})
	l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(1000)})

	debts, err := l.TransferLoanToGuarantors(loan.ID, "admin", guarantee.TransferOptions{
		PaymentType: models.DebtPaymentSingle,
		DueDate:     time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("Failed to transfer: %v", err)
	}
	if len(debts) != 2 {
		t.Fatalf("Expected 2 debts, got %d", len(debts))
	}
	// Remaining 3000 split across two guarantors
	if !debts[0].Amount.Add(debts[1].Amount).Equal(decimal.NewFromInt(3000)) {
		t.Error("Debt shares must sum to the outstanding balance")
	}
	if !loan.TransferredToGuarantors || loan.TransferDate == nil {
		t.Error("Loan must be flagged transferred")
	}

	// Transferable exactly once
	if _, err := l.TransferLoanToGuarantors(loan.ID, "admin", guarantee.TransferOptions{}); !errors.Is(err, ErrAlreadyTransferred) {
		t.Errorf("Expected ErrAlreadyTransferred, got %v", err)
	}

	// Direct borrower payments are redirected after transfer
	if _, err := l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(100)}); !errors.Is(err, ErrLoanTransferred) {
		t.Errorf("Expected ErrLoanTransferred, got %v", err)
	}

	// Guarantor pays their share down
	p, err := l.RecordGuarantorDebtPayment(debts[0].ID, decimal.NewFromInt(1500), time.Now())
	if err != nil {
		t.Fatalf("Failed to record debt payment: %v", err)
	}
	if p.GuarantorName != "Levi" {
		t.Errorf("Expected guarantor name on the row, got %q", p.GuarantorName)
	}
	if m.debts[debts[0].ID].Status != models.DebtStatusPaid {
		t.Errorf("Expected debt paid, got %s", m.debts[debts[0].ID].Status)
	}

	// Borrower money after transfer reconciles against the remaining debt
	res, err := l.RecordBorrowerPaymentAfterTransfer(loan.ID, decimal.NewFromInt(1500), time.Now())
	if err != nil {
		t.Fatalf("Failed to reconcile borrower payment: %v", err)
	}
	if len(res.Settled) != 1 || m.debts[debts[1].ID].Status != models.DebtStatusPaid {
		t.Error("Expected the second debt settled by the borrower payment")
	}
}

func TestSweepAndBlacklist(t *testing.T) {
	l, m := newTestLedger()
	g := addGuarantor(m, models.PersonStatusActive)

	past := time.Now().AddDate(0, 0, -3)
	debt := &models.GuarantorDebt{
		ID:          uuid.New(),
		GuarantorID: g.ID,
		Amount:      decimal.NewFromInt(500),
		Status:      models.DebtStatusActive,
		PaymentType: models.DebtPaymentSingle,
		DueDate:     &past,
	}
	m.debts[debt.ID] = debt

	entries, err := l.SweepOverdueDebts()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 overdue debt, got %d", len(entries))
	}
	if m.debts[debt.ID].Status != models.DebtStatusOverdue {
		t.Errorf("Expected debt marked overdue, got %s", m.debts[debt.ID].Status)
	}

	// A sweep that only marked the debt must not consume blacklist candidacy:
	// a later sweep still reports it and blacklisting still works.
	entries, err = l.SweepOverdueDebts()
	if err != nil {
		t.Fatalf("Second sweep failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected the marked debt in the second sweep, got %d entries", len(entries))
	}

	changed, err := l.BlacklistOverdueGuarantors(entries)
	if err != nil {
		t.Fatalf("Blacklist failed: %v", err)
	}
	if changed != 1 || m.guarantors[g.ID].Status != models.PersonStatusBlacklisted {
		t.Error("Expected guarantor blacklisted")
	}

	// Paying the debt ends the cycle
	if _, err := l.RecordGuarantorDebtPayment(debt.ID, decimal.NewFromInt(500), time.Now()); err != nil {
		t.Fatalf("Failed to pay debt: %v", err)
	}
	entries, err = l.SweepOverdueDebts()
	if err != nil {
		t.Fatalf("Third sweep failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries once the debt is paid, got %d", len(entries))
	}
}

func TestCreatePeopleValidation(t *testing.T) {
	l, _ := newTestLedger()

	if _, err := l.CreateBorrower(&models.Borrower{Name: "Cohen", IDNumber: "123456789"}); !errors.Is(err, ErrInvalidIDNumber) {
		t.Errorf("Expected ErrInvalidIDNumber, got %v", err)
	}

	if _, err := l.CreateGuarantor(&models.Guarantor{Name: "Levi", Phone: "0501234567"}); err != nil {
		t.Fatalf("Failed to create guarantor: %v", err)
	}
	if _, err := l.CreateGuarantor(&models.Guarantor{Name: "Mizrahi", Phone: "0501234567"}); !errors.Is(err, ErrDuplicatePhone) {
		t.Errorf("Expected ErrDuplicatePhone, got %v", err)
	}

	if _, err := l.CreateBorrower(&models.Borrower{Name: "Cohen", IDNumber: "123456782"}); err != nil {
		t.Fatalf("Valid ID rejected: %v", err)
	}
	if _, err := l.CreateBorrower(&models.Borrower{Name: "Other", IDNumber: "123456782"}); !errors.Is(err, ErrDuplicateIDNumber) {
		t.Errorf("Expected ErrDuplicateIDNumber, got %v", err)
	}
}

func TestDeleteBorrowerWithActiveLoan(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)

	loan, _ := l.CreateLoan(&models.Loan{
		BorrowerID: b.ID,
		Amount:     decimal.NewFromInt(100),
		LoanDate:   time.Now(),
		Type:       models.LoanTypeFlexible,
	})
	if err := l.DeleteBorrower(b.ID); !errors.Is(err, ErrHasActiveLoans) {
		t.Errorf("Expected ErrHasActiveLoans, got %v", err)
	}

	l.RecordPayment(loan.ID, PaymentRequest{Amount: decimal.NewFromInt(100)})
	if err := l.DeleteBorrower(b.ID); err != nil {
		t.Errorf("Expected delete to succeed once loans are completed, got %v", err)
	}
}

func TestDeposits(t *testing.T) {
	l, m := newTestLedger()
	dep := &models.Depositor{ID: uuid.New(), Name: "Friedman", CreatedAt: time.Now()}
	m.depositors[dep.ID] = dep

	if _, err := l.RecordDeposit(dep.ID, decimal.NewFromInt(100), time.Now().AddDate(0, 0, 2)); !errors.Is(err, ErrFutureDate) {
		t.Errorf("Expected ErrFutureDate, got %v", err)
	}
	if _, err := l.RecordDeposit(dep.ID, decimal.Zero, time.Now()); !errors.Is(err, ErrBadAmount) {
		t.Errorf("Expected ErrBadAmount, got %v", err)
	}

	d, err := l.RecordDeposit(dep.ID, decimal.NewFromInt(100), time.Now().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("Failed to record deposit: %v", err)
	}
	if _, err := l.WithdrawDeposit(d.ID); err != nil {
		t.Fatalf("Failed to withdraw: %v", err)
	}
	if _, err := l.WithdrawDeposit(d.ID); !errors.Is(err, ErrDepositWithdrawn) {
		t.Errorf("Expected ErrDepositWithdrawn, got %v", err)
	}
}

func TestRefreshGuarantorStats(t *testing.T) {
	l, m := newTestLedger()
	b := addBorrower(m, models.PersonStatusActive)
	g := addGuarantor(m, models.PersonStatusActive)

	ret := time.Now().AddDate(0, 1, 0)
	if _, err := l.CreateLoan(&models.Loan{
		BorrowerID:   b.ID,
		Amount:       decimal.NewFromInt(60000),
		LoanDate:     time.Now(),
		ReturnDate:   &ret,
		Type:         models.LoanTypeFixed,
		Guarantor1ID: &g.ID,
	}); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	if err := l.RefreshGuarantorStats(); err != nil {
		t.Fatalf("Failed to refresh stats: %v", err)
	}
	if g.ActiveGuarantees != 1 || !g.TotalRisk.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("Expected exposure 60000 on one loan, got %s over %d", g.TotalRisk, g.ActiveGuarantees)
	}
	if g.Status != models.PersonStatusAtRisk {
		t.Errorf("Expected at_risk, got %s", g.Status)
	}
}
