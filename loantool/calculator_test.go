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
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestCalculatePayment(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		args        PaymentArgs
		wantMonthly float64
	}{
		{
			name: "50k at 5% over 36 months",
			args: PaymentArgs{
				LoanAmount:         50000,
				AnnualInterestRate: 0.05,
				LoanTermMonths:     36,
			},
			wantMonthly: 1498.54,
		},
		{
			name: "zero interest degenerates to straight division",
			args: PaymentArgs{
				LoanAmount:         12000,
				AnnualInterestRate: 0,
				LoanTermMonths:     12,
			},
			wantMonthly: 1000,
		},
		{
			name: "100k at 6% over 60 months",
			args: PaymentArgs{
				LoanAmount:         100000,
				AnnualInterestRate: 0.06,
				LoanTermMonths:     60,
			},
			wantMonthly: 1933.28,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculatePayment(ctx, tt.args)
			if err != nil {
				t.Fatalf("CalculatePayment failed: %v", err)
			}
			if !almostEqual(got.MonthlyPayment, tt.wantMonthly, 0.01) {
				t.Errorf("MonthlyPayment = %.2f, want %.2f", got.MonthlyPayment, tt.wantMonthly)
			}
			wantTotal := got.MonthlyPayment * float64(tt.args.LoanTermMonths)
			if !almostEqual(got.TotalPayment, wantTotal, 1) {
				t.Errorf("TotalPayment = %.2f, want about %.2f", got.TotalPayment, wantTotal)
			}
			if !almostEqual(got.TotalInterest, got.TotalPayment-tt.args.LoanAmount, 1) {
				t.Errorf("TotalInterest = %.2f, want TotalPayment - principal", got.TotalInterest)
			}
		})
	}
}

func TestCalculatePaymentRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args PaymentArgs
	}{
		{name: "zero amount", args: PaymentArgs{AnnualInterestRate: 0.05, LoanTermMonths: 36}},
		{name: "negative amount", args: PaymentArgs{LoanAmount: -1, AnnualInterestRate: 0.05, LoanTermMonths: 36}},
		{name: "rate above 1", args: PaymentArgs{LoanAmount: 1000, AnnualInterestRate: 5, LoanTermMonths: 36}},
		{name: "negative rate", args: PaymentArgs{LoanAmount: 1000, AnnualInterestRate: -0.01, LoanTermMonths: 36}},
		{name: "zero term", args: PaymentArgs{LoanAmount: 1000, AnnualInterestRate: 0.05}},
		{name: "term beyond 360", args: PaymentArgs{LoanAmount: 1000, AnnualInterestRate: 0.05, LoanTermMonths: 361}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CalculatePayment(ctx, tt.args); err == nil {
				t.Errorf("CalculatePayment(%+v) succeeded, want error", tt.args)
			}
		})
	}
}

func TestGenerateSchedule(t *testing.T) {
	ctx := context.Background()
	rows, err := GenerateSchedule(ctx, ScheduleArgs{
		LoanAmount:         50000,
		AnnualInterestRate: 0.05,
		LoanTermMonths:     36,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule failed: %v", err)
	}
	if got, want := len(rows), 12; got != want {
		t.Fatalf("len(rows) = %d, want default of %d", got, want)
	}

	// First month interest on the full principal at 5%/12.
	if want := 50000 * 0.05 / 12; !almostEqual(rows[0].Interest, want, 0.01) {
		t.Errorf("month 1 interest = %.2f, want %.2f", rows[0].Interest, want)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Balance >= rows[i-1].Balance {
			t.Errorf("balance did not decrease from month %d to %d: %.2f -> %.2f",
				rows[i-1].Month, rows[i].Month, rows[i-1].Balance, rows[i].Balance)
		}
		if rows[i].Month != i+1 {
			t.Errorf("rows[%d].Month = %d, want %d", i, rows[i].Month, i+1)
		}
	}
}

func TestGenerateScheduleClampsToTerm(t *testing.T) {
	rows, err := GenerateSchedule(context.Background(), ScheduleArgs{
		LoanAmount:         5000,
		AnnualInterestRate: 0.04,
		LoanTermMonths:     6,
		ShowFirstNMonths:   24,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule failed: %v", err)
	}
	if got, want := len(rows), 6; got != want {
		t.Errorf("len(rows) = %d, want clamped to term %d", got, want)
	}
	if last := rows[len(rows)-1]; !almostEqual(last.Balance, 0, 0.01) {
		t.Errorf("final balance = %.2f, want ~0", last.Balance)
	}
}

func TestCheckAffordability(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		args           AffordabilityArgs
		wantAffordable bool
	}{
		{
			name: "comfortably affordable",
			args: AffordabilityArgs{
				LoanAmount:         20000,
				AnnualInterestRate: 0.05,
				LoanTermMonths:     36,
				MonthlyIncome:      8000,
			},
			wantAffordable: true,
		},
		{
			name: "over the DTI ceiling",
			args: AffordabilityArgs{
				LoanAmount:          50000,
				AnnualInterestRate:  0.05,
				LoanTermMonths:      36,
				MonthlyIncome:       2500,
				ExistingMonthlyDebt: 200,
			},
			wantAffordable: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckAffordability(ctx, tt.args)
			if err != nil {
				t.Fatalf("CheckAffordability failed: %v", err)
			}
			if got.Affordable != tt.wantAffordable {
				t.Errorf("Affordable = %v (DTI %.4f), want %v", got.Affordable, got.DTIRatio, tt.wantAffordable)
			}
			if got.Message == "" {
				t.Error("Message is empty, want explanation")
			}
		})
	}
}

func TestCheckAffordabilityRequiresIncome(t *testing.T) {
	_, err := CheckAffordability(context.Background(), AffordabilityArgs{
		LoanAmount:         1000,
		AnnualInterestRate: 0.05,
		LoanTermMonths:     12,
	})
	if err == nil {
		t.Error("CheckAffordability with zero income succeeded, want error")
	}
}

func TestCompareTermsDefaults(t *testing.T) {
	rows, err := CompareTerms(context.Background(), CompareTermsArgs{
		LoanAmount:         30000,
		AnnualInterestRate: 0.06,
	})
	if err != nil {
		t.Fatalf("CompareTerms failed: %v", err)
	}
	if got, want := len(rows), 5; got != want {
		t.Fatalf("len(rows) = %d, want %d default terms", got, want)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].MonthlyPayment >= rows[i-1].MonthlyPayment {
			t.Errorf("monthly payment did not fall with longer term: %d months %.2f vs %d months %.2f",
				rows[i-1].TermMonths, rows[i-1].MonthlyPayment, rows[i].TermMonths, rows[i].MonthlyPayment)
		}
		if rows[i].TotalInterest <= rows[i-1].TotalInterest {
			t.Errorf("total interest did not rise with longer term: %d months %.2f vs %d months %.2f",
				rows[i-1].TermMonths, rows[i-1].TotalInterest, rows[i].TermMonths, rows[i].TotalInterest)
		}
	}
}

func TestMaxAffordableLoan(t *testing.T) {
	got, err := MaxAffordableLoan(context.Background(), MaxLoanArgs{
		MonthlyIncome:      10000,
		AnnualInterestRate: 0.05,
		LoanTermMonths:     36,
	})
	if err != nil {
		t.Fatalf("MaxAffordableLoan failed: %v", err)
	}
	if got.MaxMonthlyPayment != 5000 {
		t.Errorf("MaxMonthlyPayment = %.2f, want 5000 (50%% of income)", got.MaxMonthlyPayment)
	}

	// Round-tripping the max loan through CalculatePayment must land on
	// the max payment.
	check, err := CalculatePayment(context.Background(), PaymentArgs{
		LoanAmount:         got.MaxLoanAmount,
		AnnualInterestRate: 0.05,
		LoanTermMonths:     36,
	})
	if err != nil {
		t.Fatalf("CalculatePayment round trip failed: %v", err)
	}
	if !almostEqual(check.MonthlyPayment, 5000, 1) {
		t.Errorf("round-trip payment = %.2f, want ~5000", check.MonthlyPayment)
	}
}

func TestMaxAffordableLoanDebtOverload(t *testing.T) {
	got, err := MaxAffordableLoan(context.Background(), MaxLoanArgs{
		MonthlyIncome:       4000,
		AnnualInterestRate:  0.05,
		LoanTermMonths:      36,
		ExistingMonthlyDebt: 2500,
	})
	if err != nil {
		t.Fatalf("MaxAffordableLoan failed: %v", err)
	}
	if got.MaxLoanAmount != 0 {
		t.Errorf("MaxLoanAmount = %.2f, want 0 when debt exceeds DTI headroom", got.MaxLoanAmount)
	}
}
