// Package views projects the current RfpResult and dashboard stats into page
// rows and KPI numbers. Every function is pure and never mutates its input.
package views

import (
	"errors"
	"math"
)

// EmptyPrompt is shown in place of a view when no pipeline result is held.
const EmptyPrompt = "Run the pipeline to see data."

var (
	ErrNoResult     = errors.New("no pipeline result")
	ErrItemNotFound = errors.New("technical item not found")
)

func roundPercent(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}
