// Package projection computes the read-only financial metrics shown next to a
// child's account: age, unlock countdown, savings progress, projected value at
// unlock, goal progress, gas costs and recurring payment dates.
//
// Every function is pure and deterministic for a given "today" and snapshot.
// All money arithmetic uses decimal values; no floating point is involved.
package projection

import (
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/shopspring/decimal"
)

const DefaultUnlockAge = 18

var (
	// AnnualReturnRate is the assumed yearly return used by ProjectedValueAtUnlock.
	AnnualReturnRate = decimal.RequireFromString("0.06")
	// MonthlyContribution is the assumed deposit added before each month compounds.
	MonthlyContribution = decimal.NewFromInt(100)

	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Age returns whole years between dob and today. The birthday itself counts.
func Age(dob, today time.Time) int {
	dob, today = utils.DateOnly(dob), utils.DateOnly(today)
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

func YearsUntilUnlock(age, unlockAge int) int {
	if unlockAge-age < 0 {
		return 0
	}
	return unlockAge - age
}

// ProgressPercentage is 100 * balance / target clamped to [0, 100], or 0 for a zero target.
func ProgressPercentage(balance, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	pct := balance.Div(target).Mul(hundred)
	switch {
	case pct.GreaterThan(hundred):
		return hundred
	case pct.IsNegative():
		return decimal.Zero
	}
	return pct
}

// ProjectedValueAtUnlock compounds monthly from the current balance until unlock:
// each month MonthlyContribution is added, then the total grows by AnnualReturnRate/12.
// Intermediate values keep full precision; the result is rounded half-even to cents.
func ProjectedValueAtUnlock(balance decimal.Decimal, yearsUntilUnlock int) decimal.Decimal {
	if yearsUntilUnlock <= 0 {
		return balance
	}
	growth := decimal.NewFromInt(1).Add(AnnualReturnRate.Div(twelve))
	value := balance
	for month := 0; month < yearsUntilUnlock*12; month++ {
		value = value.Add(MonthlyContribution).Mul(growth)
	}
	return value.RoundBank(2)
}

func GoalProgressPercentage(balance decimal.Decimal, goal *models.InvestmentGoal) decimal.Decimal {
	return ProgressPercentage(balance, goal.TargetAmount)
}

// MonthsRemaining counts calendar months between today and the goal date, ignoring days.
func MonthsRemaining(targetDate, today time.Time) int {
	targetDate, today = utils.DateOnly(targetDate), utils.DateOnly(today)
	if !targetDate.After(today) {
		return 0
	}
	months := (targetDate.Year()-today.Year())*12 + int(targetDate.Month()) - int(today.Month())
	if months < 0 {
		return 0
	}
	return months
}

// GasCostInNativeUnit converts gas used times gas price (in wei) to whole native units.
func GasCostInNativeUnit(gasUsed, gasPrice *int64) decimal.Decimal {
	if gasUsed == nil || gasPrice == nil || *gasUsed == 0 || *gasPrice == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(*gasUsed).Mul(decimal.NewFromInt(*gasPrice)).Shift(-18)
}

var paymentIntervalDays = map[models.Frequency]int{
	models.FrequencyWeekly:    7,
	models.FrequencyMonthly:   30,
	models.FrequencyQuarterly: 90,
	models.FrequencyYearly:    365,
}

// NextPaymentDate uses fixed day counts per frequency, not calendar months.
// It returns nil for one-time investments.
func NextPaymentDate(kind models.InvestmentType, frequency models.Frequency, today time.Time) *time.Time {
	if kind != models.InvestmentRecurring {
		return nil
	}
	days, ok := paymentIntervalDays[frequency]
	if !ok {
		return nil
	}
	next := utils.DateOnly(today).AddDate(0, 0, days)
	return &next
}

// TotalSavings sums every child balance plus what active investments have contributed.
func TotalSavings(children []models.Child, investments []models.Investment) decimal.Decimal {
	total := decimal.Zero
	for _, c := range children {
		total = total.Add(c.CurrentBalance)
	}
	for _, inv := range investments {
		if inv.Status == models.InvestmentActive {
			total = total.Add(inv.TotalContributed)
		}
	}
	return total
}

func ForChild(child *models.ChildView, today time.Time) models.ChildProjection {
	age := Age(child.DateOfBirth, today)
	years := YearsUntilUnlock(age, child.UnlockAge)
	return models.ChildProjection{
		Age:                    age,
		YearsUntilUnlock:       years,
		ProgressPercentage:     ProgressPercentage(child.CurrentBalance, child.TargetAmount),
		ProjectedValueAtUnlock: ProjectedValueAtUnlock(child.CurrentBalance, years),
	}
}

func IsNFTTransferable(child *models.ChildView, today time.Time) bool {
	return Age(child.DateOfBirth, today) >= child.UnlockAge
}

// ContractValueLocked mirrors the child's balance for deployed contracts only.
func ContractValueLocked(contract *models.SmartContract, child *models.ChildView) decimal.Decimal {
	if !contract.IsActive() || child == nil {
		return decimal.Zero
	}
	return child.CurrentBalance
}
