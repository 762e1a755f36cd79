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

import "github.com/loanwise/agenteval/replay"

// Stable tool names, shared between the live agent and replay.
const (
	ToolCalculatePayment   = "calculate_loan_payment"
	ToolGenerateSchedule   = "generate_payment_schedule"
	ToolCheckEligibility   = "check_loan_eligibility"
	ToolCheckAffordability = "check_loan_affordability"
	ToolCompareTerms       = "compare_loan_terms"
	ToolMaxAffordableLoan  = "calculate_max_affordable_loan"
)

// RegisterAll registers every loan tool into the registry under its stable
// name.
func RegisterAll(r *replay.Registry) error {
	if err := replay.Register(r, ToolCalculatePayment, CalculatePayment); err != nil {
		return err
	}
	if err := replay.Register(r, ToolGenerateSchedule, GenerateSchedule); err != nil {
		return err
	}
	if err := replay.Register(r, ToolCheckEligibility, CheckEligibility); err != nil {
		return err
	}
	if err := replay.Register(r, ToolCheckAffordability, CheckAffordability); err != nil {
		return err
	}
	if err := replay.Register(r, ToolCompareTerms, CompareTerms); err != nil {
		return err
	}
	return replay.Register(r, ToolMaxAffordableLoan, MaxAffordableLoan)
}
