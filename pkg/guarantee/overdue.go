package guarantee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

// OverdueEntry pairs a past-due debt with its guarantor record (nil when the
// guarantor is missing from the supplied collection).
type OverdueEntry struct {
	Debt      *models.GuarantorDebt `json:"debt"`
	Guarantor *models.Guarantor     `json:"guarantor,omitempty"`
}

// OverdueDebts reports the unpaid debts whose due date has passed:
// single-payment debts past DueDate, installment debts whose next unmet
// installment date has passed. Debts already marked overdue stay in the list
// until they are paid, so blacklist review keeps seeing them across sweeps.
// Advisory and read-only; the caller decides whether to mark the debts
// overdue or blacklist the guarantors.
func OverdueDebts(debts []*models.GuarantorDebt, payments []*models.Payment, guarantors []*models.Guarantor, today time.Time) []OverdueEntry {
	byID := make(map[uuid.UUID]*models.Guarantor, len(guarantors))
	for _, g := range guarantors {
		byID[g.ID] = g
	}

	day := today.UTC().Truncate(24 * time.Hour)
	var entries []OverdueEntry
	for _, d := range debts {
		if d.Status == models.DebtStatusPaid {
			continue
		}
		if !DebtBalance(d, payments).GreaterThan(decimal.Zero) {
			continue
		}
		due, ok := nextDueDate(d, payments)
		if !ok || !due.UTC().Truncate(24*time.Hour).Before(day) {
			continue
		}
		entries = append(entries, OverdueEntry{Debt: d, Guarantor: byID[d.GuarantorID]})
	}
	return entries
}

// nextDueDate resolves the date the debt's next money is expected: the single
// due date, or the first installment not yet covered by payments. Covered
// installments are counted as floor(paid / installmentAmount).
func nextDueDate(d *models.GuarantorDebt, payments []*models.Payment) (time.Time, bool) {
	if d.PaymentType == models.DebtPaymentSingle {
		if d.DueDate == nil {
			return time.Time{}, false
		}
		return *d.DueDate, true
	}
	if len(d.InstallmentDates) == 0 || !d.InstallmentAmount.GreaterThan(decimal.Zero) {
		return time.Time{}, false
	}
	paid := d.Amount.Sub(DebtBalance(d, payments))
	covered := int(paid.Div(d.InstallmentAmount).IntPart())
	if covered >= len(d.InstallmentDates) {
		return time.Time{}, false
	}
	return d.InstallmentDates[covered], true
}

// BlacklistOverdue promotes each distinct guarantor in the overdue list to
// blacklisted. Already-blacklisted guarantors are skipped, so repeated sweeps
// do not double-count. Returns the number actually changed.
func BlacklistOverdue(entries []OverdueEntry) int {
	changed := 0
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		g := e.Guarantor
		if g == nil || seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		if g.Status == models.PersonStatusBlacklisted {
			continue
		}
		g.Status = models.PersonStatusBlacklisted
		changed++
	}
	return changed
}
