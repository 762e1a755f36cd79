// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loantool

import (
	"context"
	"fmt"
)

// Eligibility thresholds for personal loans.
const (
	minAge              = 18
	maxAgeAtMaturity    = 65
	minMonthlyIncome    = 5000.0
	minCreditScore      = 600
	minEmploymentYears  = 1.0
	maxLoanAmount       = 1_000_000.0
	eligibilityBaseRate = 0.05 // assumed rate for the DTI estimate
)

// EligibilityStatus is the outcome category of an eligibility check.
type EligibilityStatus string

const (
	Eligible    EligibilityStatus = "eligible"
	NotEligible EligibilityStatus = "not_eligible"
	Conditional EligibilityStatus = "conditional"
)

// EligibilityArgs describes the applicant and the requested loan.
type EligibilityArgs struct {
	Age                    int     `json:"age"`
	MonthlyIncome          float64 `json:"monthly_income"`
	CreditScore            int     `json:"credit_score"`
	EmploymentStatus       string  `json:"employment_status"`
	EmploymentLengthYears  float64 `json:"employment_length_years"`
	RequestedLoanAmount    float64 `json:"requested_loan_amount"`
	LoanTermMonths         int     `json:"loan_term_months"`
	MonthlyDebtObligations float64 `json:"monthly_debt_obligations,omitempty"`
	HasExistingLoans       bool    `json:"has_existing_loans,omitempty"`
	PreviousDefaults       bool    `json:"previous_defaults,omitempty"`
}

// EligibilityResult is the outcome of an eligibility check.
type EligibilityResult struct {
	Status          EligibilityStatus `json:"status"`
	Eligible        bool              `json:"eligible"`
	Score           float64           `json:"score"`
	Reasons         []string          `json:"reasons"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// CheckEligibility runs the rule-based personal-loan eligibility checks:
// age at maturity, income floor, credit score, employment, estimated DTI,
// loan-to-income, and default history. The overall score is the mean of the
// per-check scores on a 0-100 scale.
func CheckEligibility(_ context.Context, args EligibilityArgs) (EligibilityResult, error) {
	if args.Age < 18 || args.Age > 100 {
		return EligibilityResult{}, fmt.Errorf("age must be in [18, 100], got %d", args.Age)
	}
	if args.MonthlyIncome <= 0 {
		return EligibilityResult{}, fmt.Errorf("monthly_income must be positive, got %v", args.MonthlyIncome)
	}
	if args.CreditScore < 300 || args.CreditScore > 850 {
		return EligibilityResult{}, fmt.Errorf("credit_score must be in [300, 850], got %d", args.CreditScore)
	}
	if args.RequestedLoanAmount <= 0 {
		return EligibilityResult{}, fmt.Errorf("requested_loan_amount must be positive, got %v", args.RequestedLoanAmount)
	}
	if args.LoanTermMonths <= 0 || args.LoanTermMonths > 60 {
		return EligibilityResult{}, fmt.Errorf("loan_term_months must be in (0, 60], got %d", args.LoanTermMonths)
	}

	var c checker
	ageOK := c.age(args)
	incomeOK := c.income(args)
	creditOK := c.credit(args)
	employmentOK := c.employment(args)
	dtiOK := c.dti(args)
	amountOK := c.amount(args)
	defaultsOK := c.defaults(args)

	overall := 0.0
	for _, s := range c.scores {
		overall += s
	}
	overall /= float64(len(c.scores))

	allPassed := ageOK && incomeOK && creditOK && employmentOK && dtiOK && amountOK && defaultsOK

	result := EligibilityResult{
		Score:           overall,
		Reasons:         c.reasons,
		Recommendations: c.recommendations,
	}

	switch {
	case allPassed:
		result.Status = Eligible
		result.Eligible = true
		if len(result.Reasons) == 0 {
			result.Reasons = []string{"All eligibility criteria met successfully"}
		}
	case !ageOK || !incomeOK || !creditOK || !employmentOK || !dtiOK || args.PreviousDefaults:
		result.Status = NotEligible
	default:
		result.Status = Conditional
		result.Recommendations = append(result.Recommendations,
			"Consider improving employment stability or reducing requested loan amount")
	}

	return result, nil
}

// checker accumulates per-rule scores, reasons, and recommendations.
type checker struct {
	scores          []float64
	reasons         []string
	recommendations []string
}

func (c *checker) fail(score float64, reason, recommendation string) bool {
	c.scores = append(c.scores, score)
	c.reasons = append(c.reasons, reason)
	if recommendation != "" {
		c.recommendations = append(c.recommendations, recommendation)
	}
	return false
}

func (c *checker) pass(score float64) bool {
	c.scores = append(c.scores, score)
	return true
}

func (c *checker) age(args EligibilityArgs) bool {
	maturityAge := float64(args.Age) + float64(args.LoanTermMonths)/12
	if args.Age < minAge {
		return c.fail(0,
			fmt.Sprintf("Age %d is below minimum requirement of %d", args.Age, minAge),
			"Must be at least 18 years old to apply")
	}
	if maturityAge > maxAgeAtMaturity {
		return c.fail(30,
			fmt.Sprintf("Loan maturity age %.0f exceeds maximum of %d", maturityAge, maxAgeAtMaturity),
			"Consider shorter loan term or apply at younger age")
	}
	return c.pass(100)
}

func (c *checker) income(args EligibilityArgs) bool {
	if args.MonthlyIncome < minMonthlyIncome {
		return c.fail(0,
			fmt.Sprintf("Monthly income %.2f below minimum requirement of %.2f", args.MonthlyIncome, minMonthlyIncome),
			fmt.Sprintf("Minimum monthly income required: %.2f", minMonthlyIncome))
	}
	switch ratio := args.MonthlyIncome / minMonthlyIncome; {
	case ratio >= 3:
		return c.pass(100)
	case ratio >= 2:
		return c.pass(85)
	case ratio >= 1.5:
		return c.pass(70)
	default:
		return c.pass(55)
	}
}

func (c *checker) credit(args EligibilityArgs) bool {
	if args.CreditScore < minCreditScore {
		return c.fail(0,
			fmt.Sprintf("Credit score %d below minimum of %d", args.CreditScore, minCreditScore),
			"Improve credit score by paying bills on time and reducing credit utilization")
	}
	switch {
	case args.CreditScore >= 750:
		return c.pass(100)
	case args.CreditScore >= 700:
		return c.pass(85)
	case args.CreditScore >= 650:
		return c.pass(70)
	default:
		return c.pass(55)
	}
}

func (c *checker) employment(args EligibilityArgs) bool {
	switch args.EmploymentStatus {
	case "unemployed":
		return c.fail(0, "Unemployed applicants are not eligible",
			"Secure employment before applying for a loan")
	case "retired":
		if args.Age < 60 {
			c.reasons = append(c.reasons, "Early retirement requires additional verification")
			return c.pass(60)
		}
		return c.pass(80)
	}
	if args.EmploymentLengthYears < minEmploymentYears {
		return c.fail(40,
			fmt.Sprintf("Employment length %.1f years below minimum of %.1f years", args.EmploymentLengthYears, minEmploymentYears),
			"Build employment history for better loan terms")
	}
	switch {
	case args.EmploymentLengthYears >= 5:
		return c.pass(100)
	case args.EmploymentLengthYears >= 3:
		return c.pass(85)
	case args.EmploymentLengthYears >= 2:
		return c.pass(70)
	default:
		return c.pass(55)
	}
}

func (c *checker) dti(args EligibilityArgs) bool {
	// Estimate the new payment at an assumed rate so the check stays
	// consistent with CalculatePayment.
	estimated := emi(args.RequestedLoanAmount, eligibilityBaseRate, args.LoanTermMonths)
	dti := (args.MonthlyDebtObligations + estimated) / args.MonthlyIncome

	if dti > MaxDTIRatio {
		return c.fail(0,
			fmt.Sprintf("Debt-to-Income ratio %.1f%% exceeds maximum of %.1f%%", dti*100, MaxDTIRatio*100),
			"Reduce existing debt or request smaller loan amount to improve DTI ratio")
	}
	switch {
	case dti <= 0.30:
		return c.pass(100)
	case dti <= 0.36:
		return c.pass(85)
	case dti <= 0.43:
		return c.pass(70)
	default:
		return c.pass(55)
	}
}

func (c *checker) amount(args EligibilityArgs) bool {
	if args.RequestedLoanAmount > maxLoanAmount {
		return c.fail(0,
			fmt.Sprintf("Requested amount %.2f exceeds maximum of %.2f", args.RequestedLoanAmount, maxLoanAmount),
			fmt.Sprintf("Maximum loan amount allowed: %.2f", maxLoanAmount))
	}
	loanToIncome := args.RequestedLoanAmount / (args.MonthlyIncome * 12)
	if loanToIncome > 3 {
		return c.fail(30,
			fmt.Sprintf("Loan amount is %.1fx annual income (very high risk)", loanToIncome),
			"Consider requesting smaller loan amount relative to income")
	}
	switch {
	case loanToIncome <= 1:
		return c.pass(100)
	case loanToIncome <= 1.5:
		return c.pass(85)
	case loanToIncome <= 2:
		return c.pass(70)
	default:
		return c.pass(55)
	}
}

func (c *checker) defaults(args EligibilityArgs) bool {
	if args.PreviousDefaults {
		return c.fail(0, "Previous loan defaults on record - high risk",
			"Resolve previous defaults and rebuild credit history before reapplying")
	}
	return c.pass(100)
}
