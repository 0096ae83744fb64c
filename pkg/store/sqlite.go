package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
// Decimal fields are stored as TEXT so no precision is lost.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the schema.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS borrowers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		address TEXT,
		id_number TEXT,
		bank_code TEXT,
		branch_number TEXT,
		account_number TEXT,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS guarantors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		address TEXT,
		id_number TEXT,
		bank_code TEXT,
		branch_number TEXT,
		account_number TEXT,
		active_guarantees INTEGER NOT NULL DEFAULT 0,
		total_risk TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS depositors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		id_number TEXT,
		bank_code TEXT,
		branch_number TEXT,
		account_number TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		borrower_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		loan_date DATETIME NOT NULL,
		return_date DATETIME,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0,
		recurring_day INTEGER NOT NULL DEFAULT 0,
		recurring_months INTEGER NOT NULL DEFAULT 0,
		auto_payment INTEGER NOT NULL DEFAULT 0,
		auto_payment_amount TEXT NOT NULL DEFAULT '0',
		auto_payment_day INTEGER NOT NULL DEFAULT 0,
		auto_payment_start DATETIME,
		auto_payment_frequency TEXT,
		guarantor1_id TEXT,
		guarantor2_id TEXT,
		transferred INTEGER NOT NULL DEFAULT 0,
		transfer_date DATETIME,
		transferred_by TEXT,
		transfer_notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(borrower_id) REFERENCES borrowers(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date DATETIME NOT NULL,
		type TEXT NOT NULL,
		paid_by TEXT,
		guarantor_id TEXT,
		guarantor_name TEXT,
		guarantor_debt_id TEXT,
		notes TEXT,
		method TEXT,
		details TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS guarantor_debts (
		id TEXT PRIMARY KEY,
		guarantor_id TEXT NOT NULL,
		original_loan_id TEXT NOT NULL,
		original_borrower_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		transfer_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		due_date DATETIME,
		installments_count INTEGER NOT NULL DEFAULT 0,
		installment_dates TEXT,
		installment_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		depositor_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date DATETIME NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(depositor_id) REFERENCES depositors(id)
	);
	CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		donor_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		date DATETIME NOT NULL,
		notes TEXT,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// scanner lets one scan function serve both QueryRow and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullUUID(p *uuid.UUID) any {
	if p == nil {
		return nil
	}
	return p.String()
}

func parseNullUUID(ns sql.NullString) (*uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

// ---- borrowers ----

func (s *SQLiteStore) CreateBorrower(b *models.Borrower) error {
	_, err := s.db.Exec(
		`INSERT INTO borrowers (id, name, phone, email, address, id_number, bank_code, branch_number, account_number, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Name, b.Phone, b.Email, b.Address, b.IDNumber,
		b.Bank.BankCode, b.Bank.BranchNumber, b.Bank.AccountNumber, b.Status, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create borrower: %w", err)
	}
	return nil
}

func scanBorrower(sc scanner) (*models.Borrower, error) {
	var b models.Borrower
	var idStr string
	if err := sc.Scan(&idStr, &b.Name, &b.Phone, &b.Email, &b.Address, &b.IDNumber,
		&b.Bank.BankCode, &b.Bank.BranchNumber, &b.Bank.AccountNumber, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.ID = uuid.MustParse(idStr)
	return &b, nil
}

const borrowerCols = `id, name, phone, email, address, id_number, bank_code, branch_number, account_number, status, created_at`

func (s *SQLiteStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	b, err := scanBorrower(s.db.QueryRow(`SELECT `+borrowerCols+` FROM borrowers WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("borrower: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get borrower: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) UpdateBorrower(b *models.Borrower) error {
	result, err := s.db.Exec(
		`UPDATE borrowers SET name = ?, phone = ?, email = ?, address = ?, id_number = ?, bank_code = ?, branch_number = ?, account_number = ?, status = ? WHERE id = ?`,
		b.Name, b.Phone, b.Email, b.Address, b.IDNumber,
		b.Bank.BankCode, b.Bank.BranchNumber, b.Bank.AccountNumber, b.Status, b.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update borrower: %w", err)
	}
	return requireRow(result, "borrower")
}

func (s *SQLiteStore) DeleteBorrower(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM borrowers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete borrower: %w", err)
	}
	return requireRow(result, "borrower")
}

func (s *SQLiteStore) GetAllBorrowers() ([]*models.Borrower, error) {
	rows, err := s.db.Query(`SELECT ` + borrowerCols + ` FROM borrowers`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all borrowers: %w", err)
	}
	defer rows.Close()

	var out []*models.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrower row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---- guarantors ----

const guarantorCols = `id, name, phone, email, address, id_number, bank_code, branch_number, account_number, active_guarantees, total_risk, status, created_at`

func (s *SQLiteStore) CreateGuarantor(g *models.Guarantor) error {
	_, err := s.db.Exec(
		`INSERT INTO guarantors (`+guarantorCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Name, g.Phone, g.Email, g.Address, g.IDNumber,
		g.Bank.BankCode, g.Bank.BranchNumber, g.Bank.AccountNumber,
		g.ActiveGuarantees, g.TotalRisk, g.Status, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create guarantor: %w", err)
	}
	return nil
}

func scanGuarantor(sc scanner) (*models.Guarantor, error) {
	var g models.Guarantor
	var idStr string
	if err := sc.Scan(&idStr, &g.Name, &g.Phone, &g.Email, &g.Address, &g.IDNumber,
		&g.Bank.BankCode, &g.Bank.BranchNumber, &g.Bank.AccountNumber,
		&g.ActiveGuarantees, &g.TotalRisk, &g.Status, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.ID = uuid.MustParse(idStr)
	return &g, nil
}

func (s *SQLiteStore) GetGuarantor(id uuid.UUID) (*models.Guarantor, error) {
	g, err := scanGuarantor(s.db.QueryRow(`SELECT `+guarantorCols+` FROM guarantors WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("guarantor: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guarantor: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) UpdateGuarantor(g *models.Guarantor) error {
	result, err := s.db.Exec(
		`UPDATE guarantors SET name = ?, phone = ?, email = ?, address = ?, id_number = ?, bank_code = ?, branch_number = ?, account_number = ?, active_guarantees = ?, total_risk = ?, status = ? WHERE id = ?`,
		g.Name, g.Phone, g.Email, g.Address, g.IDNumber,
		g.Bank.BankCode, g.Bank.BranchNumber, g.Bank.AccountNumber,
		g.ActiveGuarantees, g.TotalRisk, g.Status, g.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update guarantor: %w", err)
	}
	return requireRow(result, "guarantor")
}

func (s *SQLiteStore) DeleteGuarantor(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM guarantors WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete guarantor: %w", err)
	}
	return requireRow(result, "guarantor")
}

func (s *SQLiteStore) GetAllGuarantors() ([]*models.Guarantor, error) {
	rows, err := s.db.Query(`SELECT ` + guarantorCols + ` FROM guarantors`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all guarantors: %w", err)
	}
	defer rows.Close()

	var out []*models.Guarantor
	for rows.Next() {
		g, err := scanGuarantor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guarantor row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ---- depositors ----

const depositorCols = `id, name, phone, email, id_number, bank_code, branch_number, account_number, created_at`

func (s *SQLiteStore) CreateDepositor(d *models.Depositor) error {
	_, err := s.db.Exec(
		`INSERT INTO depositors (`+depositorCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Name, d.Phone, d.Email, d.IDNumber,
		d.Bank.BankCode, d.Bank.BranchNumber, d.Bank.AccountNumber, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create depositor: %w", err)
	}
	return nil
}

func scanDepositor(sc scanner) (*models.Depositor, error) {
	var d models.Depositor
	var idStr string
	if err := sc.Scan(&idStr, &d.Name, &d.Phone, &d.Email, &d.IDNumber,
		&d.Bank.BankCode, &d.Bank.BranchNumber, &d.Bank.AccountNumber, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.ID = uuid.MustParse(idStr)
	return &d, nil
}

func (s *SQLiteStore) GetDepositor(id uuid.UUID) (*models.Depositor, error) {
	d, err := scanDepositor(s.db.QueryRow(`SELECT `+depositorCols+` FROM depositors WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("depositor: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get depositor: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) GetAllDepositors() ([]*models.Depositor, error) {
	rows, err := s.db.Query(`SELECT ` + depositorCols + ` FROM depositors`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all depositors: %w", err)
	}
	defer rows.Close()

	var out []*models.Depositor
	for rows.Next() {
		d, err := scanDepositor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan depositor row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ---- loans ----

const loanCols = `id, borrower_id, amount, loan_date, return_date, type, status, recurring, recurring_day, recurring_months, auto_payment, auto_payment_amount, auto_payment_day, auto_payment_start, auto_payment_frequency, guarantor1_id, guarantor2_id, transferred, transfer_date, transferred_by, transfer_notes, created_at, updated_at`

func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.BorrowerID.String(), loan.Amount, loan.LoanDate, nullTime(loan.ReturnDate),
		loan.Type, loan.Status, loan.Recurring, loan.RecurringDay, loan.RecurringMonths,
		loan.AutoPayment, loan.AutoPaymentAmount, loan.AutoPaymentDay, nullTime(loan.AutoPaymentStartDate), loan.AutoPaymentFrequency,
		nullUUID(loan.Guarantor1ID), nullUUID(loan.Guarantor2ID),
		loan.TransferredToGuarantors, nullTime(loan.TransferDate), loan.TransferredBy, loan.TransferNotes,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func scanLoan(sc scanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, borrowerStr string
	var returnDate, autoStart, transferDate sql.NullTime
	var g1, g2, frequency, transferredBy, transferNotes sql.NullString
	if err := sc.Scan(&idStr, &borrowerStr, &loan.Amount, &loan.LoanDate, &returnDate,
		&loan.Type, &loan.Status, &loan.Recurring, &loan.RecurringDay, &loan.RecurringMonths,
		&loan.AutoPayment, &loan.AutoPaymentAmount, &loan.AutoPaymentDay, &autoStart, &frequency,
		&g1, &g2, &loan.TransferredToGuarantors, &transferDate, &transferredBy, &transferNotes,
		&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.BorrowerID = uuid.MustParse(borrowerStr)
	if returnDate.Valid {
		loan.ReturnDate = &returnDate.Time
	}
	if autoStart.Valid {
		loan.AutoPaymentStartDate = &autoStart.Time
	}
	if transferDate.Valid {
		loan.TransferDate = &transferDate.Time
	}
	loan.AutoPaymentFrequency = frequency.String
	loan.TransferredBy = transferredBy.String
	loan.TransferNotes = transferNotes.String
	var err error
	if loan.Guarantor1ID, err = parseNullUUID(g1); err != nil {
		return nil, err
	}
	if loan.Guarantor2ID, err = parseNullUUID(g2); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, err := scanLoan(s.db.QueryRow(`SELECT `+loanCols+` FROM loans WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET borrower_id = ?, amount = ?, loan_date = ?, return_date = ?, type = ?, status = ?, recurring = ?, recurring_day = ?, recurring_months = ?, auto_payment = ?, auto_payment_amount = ?, auto_payment_day = ?, auto_payment_start = ?, auto_payment_frequency = ?, guarantor1_id = ?, guarantor2_id = ?, transferred = ?, transfer_date = ?, transferred_by = ?, transfer_notes = ?, updated_at = ? WHERE id = ?`,
		loan.BorrowerID.String(), loan.Amount, loan.LoanDate, nullTime(loan.ReturnDate),
		loan.Type, loan.Status, loan.Recurring, loan.RecurringDay, loan.RecurringMonths,
		loan.AutoPayment, loan.AutoPaymentAmount, loan.AutoPaymentDay, nullTime(loan.AutoPaymentStartDate), loan.AutoPaymentFrequency,
		nullUUID(loan.Guarantor1ID), nullUUID(loan.Guarantor2ID),
		loan.TransferredToGuarantors, nullTime(loan.TransferDate), loan.TransferredBy, loan.TransferNotes,
		loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return requireRow(result, "loan")
}

// DeleteLoan removes a loan and its payment rows within a transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM payments WHERE loan_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if err := requireRow(result, "loan"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	return s.queryLoans(`SELECT ` + loanCols + ` FROM loans`)
}

func (s *SQLiteStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	return s.queryLoans(`SELECT `+loanCols+` FROM loans WHERE borrower_id = ?`, borrowerID.String())
}

func (s *SQLiteStore) queryLoans(query string, args ...any) ([]*models.Loan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// ---- payments ----

const paymentCols = `id, loan_id, amount, date, type, paid_by, guarantor_id, guarantor_name, guarantor_debt_id, notes, method, details, created_at`

func (s *SQLiteStore) CreatePayment(p *models.Payment) error {
	var details any
	if p.Details != nil {
		raw, err := json.Marshal(p.Details)
		if err != nil {
			return fmt.Errorf("failed to encode payment details: %w", err)
		}
		details = string(raw)
	}
	_, err := s.db.Exec(
		`INSERT INTO payments (`+paymentCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.LoanID.String(), p.Amount, p.Date, p.Type, p.PaidBy,
		nullUUID(p.GuarantorID), p.GuarantorName, nullUUID(p.GuarantorDebtID),
		p.Notes, p.Method, details, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func scanPayment(sc scanner) (*models.Payment, error) {
	var p models.Payment
	var idStr, loanStr string
	var gID, debtID, details sql.NullString
	if err := sc.Scan(&idStr, &loanStr, &p.Amount, &p.Date, &p.Type, &p.PaidBy,
		&gID, &p.GuarantorName, &debtID, &p.Notes, &p.Method, &details, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = uuid.MustParse(idStr)
	p.LoanID = uuid.MustParse(loanStr)
	var err error
	if p.GuarantorID, err = parseNullUUID(gID); err != nil {
		return nil, err
	}
	if p.GuarantorDebtID, err = parseNullUUID(debtID); err != nil {
		return nil, err
	}
	if details.Valid && details.String != "" {
		var d models.PaymentDetails
		if err := json.Unmarshal([]byte(details.String), &d); err != nil {
			return nil, fmt.Errorf("failed to decode payment details: %w", err)
		}
		p.Details = &d
	}
	return &p, nil
}

func (s *SQLiteStore) GetPayment(id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRow(`SELECT `+paymentCols+` FROM payments WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) DeletePayment(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM payments WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireRow(result, "payment")
}

func (s *SQLiteStore) GetAllPayments() ([]*models.Payment, error) {
	return s.queryPayments(`SELECT ` + paymentCols + ` FROM payments ORDER BY date ASC, created_at ASC`)
}

func (s *SQLiteStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	return s.queryPayments(`SELECT `+paymentCols+` FROM payments WHERE loan_id = ? ORDER BY date ASC, created_at ASC`, loanID.String())
}

func (s *SQLiteStore) GetPaymentsForDebt(debtID uuid.UUID) ([]*models.Payment, error) {
	return s.queryPayments(`SELECT `+paymentCols+` FROM payments WHERE guarantor_debt_id = ? ORDER BY date ASC, created_at ASC`, debtID.String())
}

func (s *SQLiteStore) queryPayments(query string, args ...any) ([]*models.Payment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ---- guarantor debts ----

const debtCols = `id, guarantor_id, original_loan_id, original_borrower_id, amount, transfer_date, status, payment_type, due_date, installments_count, installment_dates, installment_amount, notes, created_at`

func (s *SQLiteStore) CreateGuarantorDebt(d *models.GuarantorDebt) error {
	var dates any
	if len(d.InstallmentDates) > 0 {
		raw, err := json.Marshal(d.InstallmentDates)
		if err != nil {
			return fmt.Errorf("failed to encode installment dates: %w", err)
		}
		dates = string(raw)
	}
	_, err := s.db.Exec(
		`INSERT INTO guarantor_debts (`+debtCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.GuarantorID.String(), d.OriginalLoanID.String(), d.OriginalBorrowerID.String(),
		d.Amount, d.TransferDate, d.Status, d.PaymentType, nullTime(d.DueDate),
		d.InstallmentsCount, dates, d.InstallmentAmount, d.Notes, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create guarantor debt: %w", err)
	}
	return nil
}

func scanDebt(sc scanner) (*models.GuarantorDebt, error) {
	var d models.GuarantorDebt
	var idStr, gStr, loanStr, borrowerStr string
	var dueDate sql.NullTime
	var dates sql.NullString
	if err := sc.Scan(&idStr, &gStr, &loanStr, &borrowerStr, &d.Amount, &d.TransferDate,
		&d.Status, &d.PaymentType, &dueDate, &d.InstallmentsCount, &dates,
		&d.InstallmentAmount, &d.Notes, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.ID = uuid.MustParse(idStr)
	d.GuarantorID = uuid.MustParse(gStr)
	d.OriginalLoanID = uuid.MustParse(loanStr)
	d.OriginalBorrowerID = uuid.MustParse(borrowerStr)
	if dueDate.Valid {
		d.DueDate = &dueDate.Time
	}
	if dates.Valid && dates.String != "" {
		if err := json.Unmarshal([]byte(dates.String), &d.InstallmentDates); err != nil {
			return nil, fmt.Errorf("failed to decode installment dates: %w", err)
		}
	}
	return &d, nil
}

func (s *SQLiteStore) GetGuarantorDebt(id uuid.UUID) (*models.GuarantorDebt, error) {
	d, err := scanDebt(s.db.QueryRow(`SELECT `+debtCols+` FROM guarantor_debts WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("guarantor debt: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guarantor debt: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) UpdateGuarantorDebt(d *models.GuarantorDebt) error {
	var dates any
	if len(d.InstallmentDates) > 0 {
		raw, err := json.Marshal(d.InstallmentDates)
		if err != nil {
			return fmt.Errorf("failed to encode installment dates: %w", err)
		}
		dates = string(raw)
	}
	result, err := s.db.Exec(
		`UPDATE guarantor_debts SET amount = ?, transfer_date = ?, status = ?, payment_type = ?, due_date = ?, installments_count = ?, installment_dates = ?, installment_amount = ?, notes = ? WHERE id = ?`,
		d.Amount, d.TransferDate, d.Status, d.PaymentType, nullTime(d.DueDate),
		d.InstallmentsCount, dates, d.InstallmentAmount, d.Notes, d.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update guarantor debt: %w", err)
	}
	return requireRow(result, "guarantor debt")
}

func (s *SQLiteStore) GetAllGuarantorDebts() ([]*models.GuarantorDebt, error) {
	return s.queryDebts(`SELECT ` + debtCols + ` FROM guarantor_debts`)
}

func (s *SQLiteStore) GetDebtsForLoan(loanID uuid.UUID) ([]*models.GuarantorDebt, error) {
	return s.queryDebts(`SELECT `+debtCols+` FROM guarantor_debts WHERE original_loan_id = ?`, loanID.String())
}

func (s *SQLiteStore) queryDebts(query string, args ...any) ([]*models.GuarantorDebt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guarantor debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.GuarantorDebt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guarantor debt row: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// ---- deposits & donations ----

func (s *SQLiteStore) CreateDeposit(d *models.Deposit) error {
	_, err := s.db.Exec(
		`INSERT INTO deposits (id, depositor_id, amount, date, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.DepositorID.String(), d.Amount, d.Date, d.Status, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func scanDeposit(sc scanner) (*models.Deposit, error) {
	var d models.Deposit
	var idStr, depositorStr string
	if err := sc.Scan(&idStr, &depositorStr, &d.Amount, &d.Date, &d.Status, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.ID = uuid.MustParse(idStr)
	d.DepositorID = uuid.MustParse(depositorStr)
	return &d, nil
}

func (s *SQLiteStore) GetDeposit(id uuid.UUID) (*models.Deposit, error) {
	d, err := scanDeposit(s.db.QueryRow(`SELECT id, depositor_id, amount, date, status, created_at FROM deposits WHERE id = ?`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deposit: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) UpdateDeposit(d *models.Deposit) error {
	result, err := s.db.Exec(
		`UPDATE deposits SET amount = ?, date = ?, status = ? WHERE id = ?`,
		d.Amount, d.Date, d.Status, d.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return requireRow(result, "deposit")
}

func (s *SQLiteStore) GetAllDeposits() ([]*models.Deposit, error) {
	rows, err := s.db.Query(`SELECT id, depositor_id, amount, date, status, created_at FROM deposits`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all deposits: %w", err)
	}
	defer rows.Close()

	var out []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateDonation(d *models.Donation) error {
	_, err := s.db.Exec(
		`INSERT INTO donations (id, donor_name, amount, date, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.DonorName, d.Amount, d.Date, d.Notes, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAllDonations() ([]*models.Donation, error) {
	rows, err := s.db.Query(`SELECT id, donor_name, amount, date, notes, created_at FROM donations`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		var d models.Donation
		var idStr string
		if err := rows.Scan(&idStr, &d.DonorName, &d.Amount, &d.Date, &d.Notes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan donation row: %w", err)
		}
		d.ID = uuid.MustParse(idStr)
		out = append(out, &d)
	}
	return out, rows.Err()
}

func requireRow(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
