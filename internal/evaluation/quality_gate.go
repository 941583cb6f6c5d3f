package evaluation

import "fmt"

// QualityGate holds the minimum averages a search build must reach.
type QualityGate struct {
	MinRecallAt10 float64
	MinMRRAt10    float64
	MaxFailed     int
}

// DefaultQualityGate returns thresholds tuned for the seed catalog.
func DefaultQualityGate() QualityGate {
	return QualityGate{MinRecallAt10: 0.6, MinMRRAt10: 0.5}
}

// Check returns one violation message per threshold the summary misses.
func (g QualityGate) Check(s *EvalSummary) []string {
	if s == nil || s.TotalQueries == 0 {
		return nil
	}
	var violations []string
	if s.AvgRecallAt10 < g.MinRecallAt10 {
		violations = append(violations, fmt.Sprintf("recall@10 %.3f below %.3f", s.AvgRecallAt10, g.MinRecallAt10))
	}
	if s.AvgMRRAt10 < g.MinMRRAt10 {
		violations = append(violations, fmt.Sprintf("mrr@10 %.3f below %.3f", s.AvgMRRAt10, g.MinMRRAt10))
	}
	if s.FailedQueries > g.MaxFailed {
		violations = append(violations, fmt.Sprintf("%d queries failed, at most %d allowed", s.FailedQueries, g.MaxFailed))
	}
	return violations
}
