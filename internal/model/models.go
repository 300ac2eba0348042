// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MODEL CATALOGUE
// =============================================================================

// Info describes one entry of the closed model catalogue: the provider
// model name and its per-1K-token pricing in dollars.
type Info struct {
	Name       string  `json:"name"`
	InputCost  float64 `json:"input_cost"`  // Dollars per 1K input tokens
	OutputCost float64 `json:"output_cost"` // Dollars per 1K output tokens
}

// Catalogue is the closed list of models the bot supports. Settings updates
// are validated against this list; an unknown name is rejected at the
// settings boundary, never at completion time.
var Catalogue = []Info{
	{Name: "gpt-4-0125-preview", InputCost: 0.01, OutputCost: 0.03},
	{Name: "gpt-4-1106-vision-preview", InputCost: 0.01, OutputCost: 0.03},
	{Name: "gpt-3.5-turbo-0125", InputCost: 0.0005, OutputCost: 0.0015},
	{Name: "dall-e-3", InputCost: 0.04, OutputCost: 0.08},
}

// DefaultModel is the catalogue entry new channels start on.
var DefaultModel = Catalogue[0]

// Lookup returns the catalogue entry for the given model name.
// The second return value is false when the name is not in the catalogue.
func Lookup(name string) (Info, bool) {
	for _, m := range Catalogue {
		if m.Name == name {
			return m, true
		}
	}
	return Info{}, false
}
