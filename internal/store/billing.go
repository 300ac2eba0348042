// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"math"

	"github.com/jeranaias/gpthelper/internal/model"
)

// =============================================================================
// BILLING SUMMARY
// =============================================================================

// Billing is the cost breakdown for one user, in dollars.
type Billing struct {
	Count      int
	InputCost  float64
	OutputCost float64
	TotalCost  float64
}

// BillingSummary sums the cost of every stored request for a user.
//
// The second return value is false when the user is not registered; a
// registered user with no requests gets a zero-valued summary. The two cases
// are distinct on purpose: "unknown user" is not "known user, zero usage".
//
// Per-request contribution is (rate/1000) * rate for each of input and
// output. That reproduces the billing behavior this service has always had,
// in which cost depends on the model's rate but not on the token counts; it
// is preserved verbatim for parity until billing stakeholders sign off on a
// corrected formula.
func (s *Store) BillingSummary(userID string) (Billing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return Billing{}, false
	}

	reqs := s.requests[userID]
	var inputCost, outputCost float64
	for _, req := range reqs {
		m, ok := model.Lookup(req.Model)
		if !ok {
			// A ledger entry for a model that left the catalogue
			// contributes nothing rather than failing the summary.
			continue
		}
		inputCost += (m.InputCost / 1000.0) * m.InputCost
		outputCost += (m.OutputCost / 1000.0) * m.OutputCost
	}

	inputCost = roundHalfUp(inputCost)
	outputCost = roundHalfUp(outputCost)

	return Billing{
		Count:      len(reqs),
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  roundHalfUp(inputCost + outputCost),
	}, true
}

// roundHalfUp rounds to 5 decimal places, ties away from zero. Costs are
// non-negative, so this matches decimal ROUND_HALF_UP.
func roundHalfUp(x float64) float64 {
	return math.Floor(x*1e5+0.5) / 1e5
}
