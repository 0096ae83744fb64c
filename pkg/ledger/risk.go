package ledger

import (
	"time"

	"github.com/shlomim/gemachbook/pkg/models"
	"github.com/shopspring/decimal"
)

// DefaultHighRiskThreshold marks a guarantor at_risk once their combined
// exposure exceeds it.
var DefaultHighRiskThreshold = decimal.NewFromInt(50000)

// UpdateGuarantorStats recomputes each guarantor's derived exposure:
// ActiveGuarantees counts active/overdue loans naming them as guarantor,
// TotalRisk sums those loans' balances. Status moves between active and
// at_risk around the threshold; blacklisted is sticky and never overwritten
// here. Mutates the supplied records in place and returns them.
func UpdateGuarantorStats(guarantors []*models.Guarantor, loans []*models.Loan, payments []*models.Payment, threshold decimal.Decimal, today time.Time) []*models.Guarantor {
	for _, g := range guarantors {
		count := 0
		risk := decimal.Zero
		for _, l := range loans {
			if !loanNamesGuarantor(l, g) {
				continue
			}
			switch ClassifyLoan(l, payments, today) {
			case models.LoanStatusActive, models.LoanStatusOverdue:
				count++
				risk = risk.Add(LoanBalance(l, payments))
			}
		}
		g.ActiveGuarantees = count
		g.TotalRisk = risk
		if g.Status == models.PersonStatusBlacklisted {
			continue
		}
		if risk.GreaterThan(threshold) {
			g.Status = models.PersonStatusAtRisk
		} else {
			g.Status = models.PersonStatusActive
		}
	}
	return guarantors
}

func loanNamesGuarantor(l *models.Loan, g *models.Guarantor) bool {
	if l.Guarantor1ID != nil && *l.Guarantor1ID == g.ID {
		return true
	}
	return l.Guarantor2ID != nil && *l.Guarantor2ID == g.ID
}

// IsBlacklisted reports whether a person status blocks participation in new
// loans.
func IsBlacklisted(status models.PersonStatus) bool {
	return status == models.PersonStatusBlacklisted
}
