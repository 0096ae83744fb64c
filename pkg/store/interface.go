package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"
)

// ErrNotFound is returned when an entity id is absent from the store.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence operations for the fund's entities.
type Storage interface {
	CreateBorrower(b *models.Borrower) error
	GetBorrower(id uuid.UUID) (*models.Borrower, error)
	UpdateBorrower(b *models.Borrower) error
	DeleteBorrower(id uuid.UUID) error
	GetAllBorrowers() ([]*models.Borrower, error)

	CreateGuarantor(g *models.Guarantor) error
	GetGuarantor(id uuid.UUID) (*models.Guarantor, error)
	UpdateGuarantor(g *models.Guarantor) error
	DeleteGuarantor(id uuid.UUID) error
	GetAllGuarantors() ([]*models.Guarantor, error)

	CreateDepositor(d *models.Depositor) error
	GetDepositor(id uuid.UUID) (*models.Depositor, error)
	GetAllDepositors() ([]*models.Depositor, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)
	GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error)

	CreatePayment(p *models.Payment) error
	GetPayment(id uuid.UUID) (*models.Payment, error)
	DeletePayment(id uuid.UUID) error
	GetAllPayments() ([]*models.Payment, error)
	GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error)
	GetPaymentsForDebt(debtID uuid.UUID) ([]*models.Payment, error)

	CreateGuarantorDebt(d *models.GuarantorDebt) error
	GetGuarantorDebt(id uuid.UUID) (*models.GuarantorDebt, error)
	UpdateGuarantorDebt(d *models.GuarantorDebt) error
	GetAllGuarantorDebts() ([]*models.GuarantorDebt, error)
	GetDebtsForLoan(loanID uuid.UUID) ([]*models.GuarantorDebt, error)

	CreateDeposit(d *models.Deposit) error
	GetDeposit(id uuid.UUID) (*models.Deposit, error)
	UpdateDeposit(d *models.Deposit) error
	GetAllDeposits() ([]*models.Deposit, error)

	CreateDonation(d *models.Donation) error
	GetAllDonations() ([]*models.Donation, error)

	Close() error
}
