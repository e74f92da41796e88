package models

import "fmt"

// OptimizationMode selects the speed/quality trade-off for document
// reranking and answer generation.
type OptimizationMode string

const (
	ModeSpeed    OptimizationMode = "speed"
	ModeBalanced OptimizationMode = "balanced"
	ModeQuality  OptimizationMode = "quality"
)

// ParseOptimizationMode validates a mode string, defaulting empty input to
// balanced.
func ParseOptimizationMode(s string) (OptimizationMode, error) {
	switch OptimizationMode(s) {
	case ModeSpeed, ModeBalanced, ModeQuality:
		return OptimizationMode(s), nil
	case "":
		return ModeBalanced, nil
	default:
		return "", fmt.Errorf("unknown optimization mode %q", s)
	}
}
