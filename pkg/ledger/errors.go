package ledger

import "errors"

// Business-rule rejections. All are expected, anticipated conditions; the
// caller decides how to surface them (HTTP status, UI message).
var (
	ErrBadAmount          = errors.New("amount must be positive")
	ErrExceedsBalance     = errors.New("payment exceeds outstanding balance")
	ErrExceedsTotalDebt   = errors.New("amount exceeds total outstanding balances")
	ErrBlacklisted        = errors.New("party is blacklisted")
	ErrLoanTransferred    = errors.New("loan was transferred to guarantors")
	ErrAlreadyTransferred = errors.New("loan already transferred to guarantors")
	ErrNoGuarantors       = errors.New("loan has no guarantors")
	ErrNothingOutstanding = errors.New("loan has no outstanding balance")
	ErrReturnBeforeLoan   = errors.New("return date precedes loan date")
	ErrAutoPaymentTooBig  = errors.New("auto-payment amount exceeds loan amount")
	ErrInvalidIDNumber    = errors.New("invalid israeli id number")
	ErrDuplicateIDNumber  = errors.New("id number already in use")
	ErrDuplicatePhone     = errors.New("phone number already in use")
	ErrHasActiveLoans     = errors.New("borrower has active loans")
	ErrHasGuarantees      = errors.New("guarantor has active guarantees or debts")
	ErrFutureDate         = errors.New("date must not be in the future")
	ErrDepositWithdrawn   = errors.New("deposit already withdrawn")
	ErrBelowRepaid        = errors.New("amount cannot drop below what was already repaid")
	ErrDisbursementRow    = errors.New("disbursement row cannot be deleted")
)
