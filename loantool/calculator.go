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

// Package loantool provides the loan advisor's deterministic domain tools:
// payment calculation, amortization schedules, eligibility checks,
// affordability assessment, term comparison, and maximum-loan estimation.
//
// All functions are pure: the same arguments always produce the same result
// and nothing external is read or written. That property is what makes them
// safe to replay during context reconstruction.
package loantool

import (
	"context"
	"fmt"
	"math"
)

// MaxDTIRatio is the recommended debt-to-income ceiling applied by
// affordability and eligibility checks.
const MaxDTIRatio = 0.5

// PaymentArgs are the inputs to a loan payment calculation.
type PaymentArgs struct {
	LoanAmount         float64 `json:"loan_amount"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	LoanTermMonths     int     `json:"loan_term_months"`
}

// PaymentResult is the outcome of a loan payment calculation.
type PaymentResult struct {
	MonthlyPayment       float64 `json:"monthly_payment"`
	TotalPayment         float64 `json:"total_payment"`
	TotalInterest        float64 `json:"total_interest"`
	TotalPrincipal       float64 `json:"total_principal"`
	LoanTermMonths       int     `json:"loan_term_months"`
	AnnualInterestRate   float64 `json:"annual_interest_rate"`
	EffectiveMonthlyRate float64 `json:"effective_monthly_rate"`
}

// CalculatePayment computes the monthly EMI and totals for a loan.
//
// EMI = P * r * (1+r)^n / ((1+r)^n - 1), with r the monthly rate and n the
// number of months. A zero rate degenerates to straight division.
func CalculatePayment(_ context.Context, args PaymentArgs) (PaymentResult, error) {
	if err := validateLoan(args.LoanAmount, args.AnnualInterestRate, args.LoanTermMonths); err != nil {
		return PaymentResult{}, err
	}

	monthly := emi(args.LoanAmount, args.AnnualInterestRate, args.LoanTermMonths)
	total := monthly * float64(args.LoanTermMonths)

	return PaymentResult{
		MonthlyPayment:       round2(monthly),
		TotalPayment:         round2(total),
		TotalInterest:        round2(total - args.LoanAmount),
		TotalPrincipal:       args.LoanAmount,
		LoanTermMonths:       args.LoanTermMonths,
		AnnualInterestRate:   args.AnnualInterestRate,
		EffectiveMonthlyRate: args.AnnualInterestRate / 12,
	}, nil
}

// ScheduleArgs are the inputs to an amortization schedule.
type ScheduleArgs struct {
	LoanAmount         float64 `json:"loan_amount"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	LoanTermMonths     int     `json:"loan_term_months"`
	// ShowFirstNMonths limits the rows returned; zero means the first 12.
	ShowFirstNMonths int `json:"show_first_n_months,omitempty"`
}

// ScheduleRow is one month of an amortization schedule.
type ScheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// GenerateSchedule produces the month-by-month payment breakdown. The result
// is tabular and serializes as a JSON array of records.
func GenerateSchedule(_ context.Context, args ScheduleArgs) ([]ScheduleRow, error) {
	if err := validateLoan(args.LoanAmount, args.AnnualInterestRate, args.LoanTermMonths); err != nil {
		return nil, err
	}

	show := args.ShowFirstNMonths
	if show <= 0 {
		show = 12
	}
	if show > args.LoanTermMonths {
		show = args.LoanTermMonths
	}

	monthly := emi(args.LoanAmount, args.AnnualInterestRate, args.LoanTermMonths)
	rate := args.AnnualInterestRate / 12
	balance := args.LoanAmount

	rows := make([]ScheduleRow, 0, show)
	for month := 1; month <= show; month++ {
		interest := balance * rate
		principal := monthly - interest
		if principal > balance {
			principal = balance
		}
		balance -= principal
		rows = append(rows, ScheduleRow{
			Month:     month,
			Payment:   round2(monthly),
			Principal: round2(principal),
			Interest:  round2(interest),
			Balance:   round2(balance),
		})
	}
	return rows, nil
}

// AffordabilityArgs are the inputs to an affordability assessment.
type AffordabilityArgs struct {
	LoanAmount          float64 `json:"loan_amount"`
	AnnualInterestRate  float64 `json:"annual_interest_rate"`
	LoanTermMonths      int     `json:"loan_term_months"`
	MonthlyIncome       float64 `json:"monthly_income"`
	ExistingMonthlyDebt float64 `json:"existing_monthly_debt,omitempty"`
}

// AffordabilityResult is the outcome of an affordability assessment.
type AffordabilityResult struct {
	Affordable        bool    `json:"affordable"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	MonthlyIncome     float64 `json:"monthly_income"`
	ExistingDebt      float64 `json:"existing_debt"`
	TotalMonthlyDebt  float64 `json:"total_monthly_debt"`
	DTIRatio          float64 `json:"dti_ratio"`
	MaxRecommendedDTI float64 `json:"max_recommended_dti"`
	Message           string  `json:"message"`
}

// CheckAffordability assesses whether the loan fits the applicant's income
// under the recommended DTI ceiling.
func CheckAffordability(ctx context.Context, args AffordabilityArgs) (AffordabilityResult, error) {
	if args.MonthlyIncome <= 0 {
		return AffordabilityResult{}, fmt.Errorf("monthly_income must be positive, got %v", args.MonthlyIncome)
	}
	payment, err := CalculatePayment(ctx, PaymentArgs{
		LoanAmount:         args.LoanAmount,
		AnnualInterestRate: args.AnnualInterestRate,
		LoanTermMonths:     args.LoanTermMonths,
	})
	if err != nil {
		return AffordabilityResult{}, err
	}

	totalDebt := payment.MonthlyPayment + args.ExistingMonthlyDebt
	dti := totalDebt / args.MonthlyIncome
	affordable := dti <= MaxDTIRatio

	return AffordabilityResult{
		Affordable:        affordable,
		MonthlyPayment:    payment.MonthlyPayment,
		MonthlyIncome:     args.MonthlyIncome,
		ExistingDebt:      args.ExistingMonthlyDebt,
		TotalMonthlyDebt:  round2(totalDebt),
		DTIRatio:          round4(dti),
		MaxRecommendedDTI: MaxDTIRatio,
		Message:           affordabilityMessage(dti, affordable),
	}, nil
}

func affordabilityMessage(dti float64, affordable bool) string {
	switch {
	case !affordable:
		return fmt.Sprintf("Warning: DTI ratio of %.1f%% exceeds recommended maximum of %.1f%%. Consider reducing loan amount or term.", dti*100, MaxDTIRatio*100)
	case dti <= 0.30:
		return fmt.Sprintf("Excellent affordability! DTI ratio of %.1f%% is very healthy.", dti*100)
	case dti <= 0.36:
		return fmt.Sprintf("Good affordability. DTI ratio of %.1f%% is within comfort zone.", dti*100)
	default:
		return fmt.Sprintf("Acceptable affordability. DTI ratio of %.1f%% is manageable but getting high.", dti*100)
	}
}

// CompareTermsArgs are the inputs to a term comparison.
type CompareTermsArgs struct {
	LoanAmount         float64 `json:"loan_amount"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	// Terms lists the loan terms in months to compare; empty defaults to
	// 12, 24, 36, 48, and 60 months.
	Terms []int `json:"terms,omitempty"`
}

// TermComparison is one row of a term comparison table.
type TermComparison struct {
	TermMonths         int     `json:"term_months"`
	TermYears          float64 `json:"term_years"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	TotalPayment       float64 `json:"total_payment"`
	TotalInterest      float64 `json:"total_interest"`
	InterestPercentage float64 `json:"interest_percentage"`
}

// CompareTerms computes payment and cost figures across candidate terms.
func CompareTerms(ctx context.Context, args CompareTermsArgs) ([]TermComparison, error) {
	terms := args.Terms
	if len(terms) == 0 {
		terms = []int{12, 24, 36, 48, 60}
	}

	rows := make([]TermComparison, 0, len(terms))
	for _, term := range terms {
		payment, err := CalculatePayment(ctx, PaymentArgs{
			LoanAmount:         args.LoanAmount,
			AnnualInterestRate: args.AnnualInterestRate,
			LoanTermMonths:     term,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, TermComparison{
			TermMonths:         term,
			TermYears:          round2(float64(term) / 12),
			MonthlyPayment:     payment.MonthlyPayment,
			TotalPayment:       payment.TotalPayment,
			TotalInterest:      payment.TotalInterest,
			InterestPercentage: round2(payment.TotalInterest / args.LoanAmount * 100),
		})
	}
	return rows, nil
}

// MaxLoanArgs are the inputs to a maximum-affordable-loan estimation.
type MaxLoanArgs struct {
	MonthlyIncome       float64 `json:"monthly_income"`
	AnnualInterestRate  float64 `json:"annual_interest_rate"`
	LoanTermMonths      int     `json:"loan_term_months"`
	ExistingMonthlyDebt float64 `json:"existing_monthly_debt,omitempty"`
}

// MaxLoanResult is the outcome of a maximum-affordable-loan estimation.
type MaxLoanResult struct {
	MaxLoanAmount      float64 `json:"max_loan_amount"`
	MaxMonthlyPayment  float64 `json:"max_monthly_payment"`
	MonthlyIncome      float64 `json:"monthly_income"`
	ExistingDebt       float64 `json:"existing_debt"`
	DTIRatio           float64 `json:"dti_ratio"`
	TermMonths         int     `json:"term_months"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	Message            string  `json:"message"`
}

// MaxAffordableLoan reverses the EMI formula: given the payment headroom the
// DTI ceiling leaves, it computes the largest principal that payment can
// carry over the term (present value of the payment stream).
func MaxAffordableLoan(_ context.Context, args MaxLoanArgs) (MaxLoanResult, error) {
	if args.MonthlyIncome <= 0 {
		return MaxLoanResult{}, fmt.Errorf("monthly_income must be positive, got %v", args.MonthlyIncome)
	}
	if args.LoanTermMonths <= 0 {
		return MaxLoanResult{}, fmt.Errorf("loan_term_months must be positive, got %d", args.LoanTermMonths)
	}

	maxPayment := args.MonthlyIncome*MaxDTIRatio - args.ExistingMonthlyDebt
	if maxPayment <= 0 {
		return MaxLoanResult{
			MaxMonthlyPayment: round2(maxPayment),
			MonthlyIncome:     args.MonthlyIncome,
			ExistingDebt:      args.ExistingMonthlyDebt,
			DTIRatio:          MaxDTIRatio,
			TermMonths:        args.LoanTermMonths,
			Message:           "Existing debt already exceeds recommended DTI ratio",
		}, nil
	}

	principal := presentValue(maxPayment, args.AnnualInterestRate, args.LoanTermMonths)

	return MaxLoanResult{
		MaxLoanAmount:      round2(principal),
		MaxMonthlyPayment:  round2(maxPayment),
		MonthlyIncome:      args.MonthlyIncome,
		ExistingDebt:       args.ExistingMonthlyDebt,
		DTIRatio:           MaxDTIRatio,
		TermMonths:         args.LoanTermMonths,
		AnnualInterestRate: args.AnnualInterestRate,
		Message:            fmt.Sprintf("Based on %.0f%% DTI ratio, you can afford up to $%.2f", MaxDTIRatio*100, principal),
	}, nil
}

// emi returns the equated monthly installment for a principal at an annual
// rate over n months.
func emi(principal, annualRate float64, months int) float64 {
	rate := annualRate / 12
	if rate == 0 {
		return principal / float64(months)
	}
	growth := math.Pow(1+rate, float64(months))
	return principal * rate * growth / (growth - 1)
}

// presentValue returns the largest principal a fixed monthly payment can
// amortize at an annual rate over n months.
func presentValue(payment, annualRate float64, months int) float64 {
	rate := annualRate / 12
	if rate == 0 {
		return payment * float64(months)
	}
	return payment * (1 - math.Pow(1+rate, -float64(months))) / rate
}

func validateLoan(amount, rate float64, months int) error {
	if amount <= 0 {
		return fmt.Errorf("loan_amount must be positive, got %v", amount)
	}
	if rate < 0 || rate > 1 {
		return fmt.Errorf("annual_interest_rate must be in [0, 1], got %v", rate)
	}
	if months <= 0 || months > 360 {
		return fmt.Errorf("loan_term_months must be in (0, 360], got %d", months)
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
