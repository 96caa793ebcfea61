package membership

import (
	"errors"
	"fmt"
	"strings"
)

// PlanType is one of the membership plans sold at the front desk.
type PlanType string

const (
	PlanOneMonth    PlanType = "1 Month"
	PlanThreeMonths PlanType = "3 Months"
	PlanSixMonths   PlanType = "6 Months"
	PlanOneYear     PlanType = "1 Year"
)

var ErrInvalidPlanType = errors.New("invalid membership type")

var planMonths = map[PlanType]int{
	PlanOneMonth:    1,
	PlanThreeMonths: 3,
	PlanSixMonths:   6,
	PlanOneYear:     12,
}

var planAliases = map[string]PlanType{
	"1 month":   PlanOneMonth,
	"3 months":  PlanThreeMonths,
	"6 months":  PlanSixMonths,
	"1 year":    PlanOneYear,
	"12 months": PlanOneYear,
}

// Plans lists the recognised plans, shortest first.
func Plans() []PlanType {
	return []PlanType{PlanOneMonth, PlanThreeMonths, PlanSixMonths, PlanOneYear}
}

// ParsePlanType normalises user input such as "3 months", "3-Months" or
// "1 YEAR" to its canonical PlanType.
func ParsePlanType(s string) (PlanType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")
	if p, ok := planAliases[normalized]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlanType, s)
}

// Months returns the plan duration in calendar months, or 0 if the plan is
// not recognised.
func (p PlanType) Months() int {
	return planMonths[p]
}

func (p PlanType) Valid() bool {
	_, ok := planMonths[p]
	return ok
}

func (p PlanType) String() string { return string(p) }

// ComputeEndDate returns the last day covered by a plan bought on start:
// the day before the next cycle would begin.
//
//	2024-01-01 + 1 Month -> next cycle 2024-02-01 -> end 2024-01-31
func ComputeEndDate(start Date, plan PlanType) (Date, error) {
	months := plan.Months()
	if months == 0 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidPlanType, string(plan))
	}
	if start.IsZero() {
		return Date{}, ErrInvalidDate
	}
	nextCycle := start.AddMonths(months)
	return nextCycle.AddDays(-1), nil
}

// EndDateFor parses both raw inputs and computes the end date.
func EndDateFor(startDate, planType string) (Date, error) {
	plan, err := ParsePlanType(planType)
	if err != nil {
		return Date{}, err
	}
	start, err := ParseDate(startDate)
	if err != nil {
		return Date{}, err
	}
	return ComputeEndDate(start, plan)
}
