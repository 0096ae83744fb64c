package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypeFixed    LoanType = "fixed"
	LoanTypeFlexible LoanType = "flexible" // repayable on notice, no return-date deadline
)

type LoanStatus string

const (
	LoanStatusFuture    LoanStatus = "future"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusOverdue   LoanStatus = "overdue"
	LoanStatusCompleted LoanStatus = "completed"
)

type Loan struct {
	ID         uuid.UUID       `json:"id"`
	BorrowerID uuid.UUID       `json:"borrower_id"`
	Amount     decimal.Decimal `json:"amount"` // principal, fixed at creation
	LoanDate   time.Time       `json:"loan_date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"` // nil for flexible loans
	Type       LoanType        `json:"type"`
	Status     LoanStatus      `json:"status"` // cached; recomputed alongside every payment mutation

	Recurring       bool `json:"recurring"`
	RecurringDay    int  `json:"recurring_day,omitempty"`
	RecurringMonths int  `json:"recurring_months,omitempty"`

	AutoPayment          bool            `json:"auto_payment"`
	AutoPaymentAmount    decimal.Decimal `json:"auto_payment_amount"`
	AutoPaymentDay       int             `json:"auto_payment_day,omitempty"`
	AutoPaymentStartDate *time.Time      `json:"auto_payment_start_date,omitempty"`
	AutoPaymentFrequency string          `json:"auto_payment_frequency,omitempty"`

	Guarantor1ID *uuid.UUID `json:"guarantor1_id,omitempty"`
	Guarantor2ID *uuid.UUID `json:"guarantor2_id,omitempty"`

	TransferredToGuarantors bool       `json:"transferred_to_guarantors"`
	TransferDate            *time.Time `json:"transfer_date,omitempty"`
	TransferredBy           string     `json:"transferred_by,omitempty"`
	TransferNotes           string     `json:"transfer_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Guarantors returns the non-nil guarantor ids on the loan.
func (l *Loan) Guarantors() []uuid.UUID {
	var ids []uuid.UUID
	if l.Guarantor1ID != nil {
		ids = append(ids, *l.Guarantor1ID)
	}
	if l.Guarantor2ID != nil {
		ids = append(ids, *l.Guarantor2ID)
	}
	return ids
}

type PaymentType string

const (
	PaymentTypeLoan    PaymentType = "loan" // the original principal disbursement row
	PaymentTypePayment PaymentType = "payment"
)

type PayerKind string

const (
	PaidByBorrower  PayerKind = "borrower"
	PaidByGuarantor PayerKind = "guarantor"
)

type Payment struct {
	ID              uuid.UUID       `json:"id"`
	LoanID          uuid.UUID       `json:"loan_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date"`
	Type            PaymentType     `json:"type"`
	PaidBy          PayerKind       `json:"paid_by,omitempty"`
	GuarantorID     *uuid.UUID      `json:"guarantor_id,omitempty"`
	GuarantorName   string          `json:"guarantor_name,omitempty"`
	GuarantorDebtID *uuid.UUID      `json:"guarantor_debt_id,omitempty"` // set when the payment satisfies a transferred debt
	Notes           string          `json:"notes,omitempty"`
	Method          PaymentMethod   `json:"method,omitempty"`
	Details         *PaymentDetails `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BankAccount is the Israeli routing triple carried by people records.
// Completeness is a digit-count check, not a registry lookup.
type BankAccount struct {
	BankCode      string `json:"bank_code,omitempty"`      // 2 digits
	BranchNumber  string `json:"branch_number,omitempty"`  // 3 digits
	AccountNumber string `json:"account_number,omitempty"` // 9 digits
}

// Complete reports whether all three routing fields carry the expected
// digit counts: bank code 2, branch 3, account 9.
func (b BankAccount) Complete() bool {
	return digitsLen(b.BankCode, 2) && digitsLen(b.BranchNumber, 3) && digitsLen(b.AccountNumber, 9)
}

func digitsLen(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type PersonStatus string

const (
	PersonStatusActive      PersonStatus = "active"
	PersonStatusAtRisk      PersonStatus = "at_risk"
	PersonStatusBlacklisted PersonStatus = "blacklisted"
)

type Borrower struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone,omitempty"`
	Email     string       `json:"email,omitempty"`
	Address   string       `json:"address,omitempty"`
	IDNumber  string       `json:"id_number,omitempty"` // Israeli national ID, checksum-validated when present
	Bank      BankAccount  `json:"bank"`
	Status    PersonStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type Guarantor struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone,omitempty"`
	Email    string      `json:"email,omitempty"`
	Address  string      `json:"address,omitempty"`
	IDNumber string      `json:"id_number,omitempty"`
	Bank     BankAccount `json:"bank"`

	// Derived by the risk aggregator; never set directly except for blacklisting.
	ActiveGuarantees int             `json:"active_guarantees"`
	TotalRisk        decimal.Decimal `json:"total_risk"`

	Status    PersonStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type Depositor struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	Email     string      `json:"email,omitempty"`
	IDNumber  string      `json:"id_number,omitempty"`
	Bank      BankAccount `json:"bank"`
	CreatedAt time.Time   `json:"created_at"`
}

type DebtStatus string

const (
	DebtStatusActive  DebtStatus = "active"
	DebtStatusPaid    DebtStatus = "paid"
	DebtStatusOverdue DebtStatus = "overdue"
)

type DebtPaymentType string

const (
	DebtPaymentSingle       DebtPaymentType = "single"
	DebtPaymentInstallments DebtPaymentType = "installments"
)

// GuarantorDebt is the obligation created against a guarantor when a
// borrower's loan is formally transferred after default.
type GuarantorDebt struct {
	ID                 uuid.UUID       `json:"id"`
	GuarantorID        uuid.UUID       `json:"guarantor_id"`
	OriginalLoanID     uuid.UUID       `json:"original_loan_id"`
	OriginalBorrowerID uuid.UUID       `json:"original_borrower_id"`
	Amount             decimal.Decimal `json:"amount"`
	TransferDate       time.Time       `json:"transfer_date"`
	Status             DebtStatus      `json:"status"`
	PaymentType        DebtPaymentType `json:"payment_type"`
	DueDate            *time.Time      `json:"due_date,omitempty"` // single-payment debts
	InstallmentsCount  int             `json:"installments_count,omitempty"`
	InstallmentDates   []time.Time     `json:"installment_dates,omitempty"`
	InstallmentAmount  decimal.Decimal `json:"installment_amount"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type DepositStatus string

const (
	DepositStatusActive    DepositStatus = "active"
	DepositStatusWithdrawn DepositStatus = "withdrawn"
)

type Deposit struct {
	ID          uuid.UUID       `json:"id"`
	DepositorID uuid.UUID       `json:"depositor_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Status      DepositStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Donation struct {
	ID        uuid.UUID       `json:"id"`
	DonorName string          `json:"donor_name"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
