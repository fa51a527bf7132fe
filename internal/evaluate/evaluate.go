package evaluate

import (
	"math"
	"time"

	"github.com/urbanmesh/zonegate/internal/classify"
)

// Status is the per-rule comparison outcome.
type Status string

const (
	StatusCompliant     Status = "COMPLIANT"
	StatusPartial       Status = "PARTIAL"
	StatusNonCompliant  Status = "NON_COMPLIANT"
	StatusNotApplicable Status = "NOT_APPLICABLE"
	StatusInformational Status = "INFORMATIONAL"
	StatusInvalid       Status = "INVALID"
)

// OverallStatus is the aggregate verdict derived from the overall score.
type OverallStatus string

const (
	OverallCompliant          OverallStatus = "COMPLIANT"
	OverallPartiallyCompliant OverallStatus = "PARTIALLY_COMPLIANT"
	OverallNonCompliant       OverallStatus = "NON_COMPLIANT"
)

// DefaultTolerance allows a 10% overshoot of a numeric limit to score as
// partial rather than outright non-compliant.
const DefaultTolerance = 1.10

const (
	compliantThreshold = 0.90
	partialThreshold   = 0.50
)

// Rule is a classified regulation rule as the evaluator consumes it.
type Rule struct {
	ID       string
	ClauseNo string
	Category classify.Category
	Details  map[string]any
	Text     string
}

// Proposal is the building design under evaluation: a jurisdiction key and a
// free-form parameter map with recognized numeric keys (height_m, fsi,
// setback_m, floors, parking, coverage).
type Proposal struct {
	Name         string
	Jurisdiction string
	Parameters   map[string]any
}

// RuleResult records one rule's comparison outcome, kept for every rule
// considered so verdicts stay explainable.
type RuleResult struct {
	RuleID   string   `json:"rule_id,omitempty"`
	ClauseNo string   `json:"clause_no,omitempty"`
	Category string   `json:"category"`
	RuleText string   `json:"rule_text,omitempty"`
	Allowed  *float64 `json:"allowed"`
	Proposed *float64 `json:"proposed"`
	Status   Status   `json:"status"`
}

// Evaluation is the aggregate verdict for one proposal against one rule set.
type Evaluation struct {
	ProjectName     string         `json:"project_name,omitempty"`
	Jurisdiction    string         `json:"jurisdiction"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	Results         []RuleResult   `json:"results"`
	ApplicableRules int            `json:"applicable_rules_count"`
	OverallScore    float64        `json:"overall_score"`
	OverallStatus   OverallStatus  `json:"overall_status"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}

// allowedKeys lists, per category, the detail fields that may carry the
// allowed value. First key that yields a number wins; classified rules come
// from several writers and their payload shapes differ.
var allowedKeys = map[classify.Category][]string{
	classify.CategoryHeight:   {"height_m", "value", "candidate_m", "max_height"},
	classify.CategoryFSI:      {"fsi", "value", "allowed_fsi"},
	classify.CategorySetback:  {"setback_m", "value", "setback_candidate_m"},
	classify.CategoryFloors:   {"floors", "value"},
	classify.CategoryParking:  {"value", "parking_required", "parking_spaces"},
	classify.CategoryCoverage: {"value", "coverage_percent", "allowed_coverage"},
}

// proposalKeys maps a category to the proposal parameters it is checked
// against, in lookup order.
var proposalKeys = map[classify.Category][]string{
	classify.CategoryHeight:   {"height_m"},
	classify.CategoryFSI:      {"fsi"},
	classify.CategorySetback:  {"setback_m"},
	classify.CategoryFloors:   {"floors"},
	classify.CategoryParking:  {"parking_spaces", "parking"},
	classify.CategoryCoverage: {"coverage_percent", "coverage"},
}

// Evaluator compares proposals against classified rules. Zero configuration
// beyond the tolerance multiplier; evaluation is pure and deterministic.
type Evaluator struct {
	tolerance float64
}

func New(tolerance float64) *Evaluator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Evaluator{tolerance: tolerance}
}

func (e *Evaluator) Tolerance() float64 {
	return e.tolerance
}

// Evaluate scores a proposal against a rule set. Every rule produces a
// result; only numerically decided rules (compliant, partial, non-compliant)
// count toward the applicable-rule denominator and the score sum. A bad rule
// degrades to INVALID and never aborts the batch.
func (e *Evaluator) Evaluate(proposal Proposal, rules []Rule) *Evaluation {
	results := make([]RuleResult, 0, len(rules))
	scoreSum := 0.0
	applicable := 0

	for _, r := range rules {
		res := e.checkRule(proposal, r)

		switch res.Status {
		case StatusCompliant:
			applicable++
			scoreSum += 1.0
		case StatusPartial:
			applicable++
			scoreSum += 0.5
		case StatusNonCompliant:
			applicable++
		}

		results = append(results, res)
	}

	score := 0.0
	if applicable > 0 {
		score = round2(scoreSum / float64(applicable))
	}

	return &Evaluation{
		ProjectName:     proposal.Name,
		Jurisdiction:    proposal.Jurisdiction,
		Parameters:      proposal.Parameters,
		Results:         results,
		ApplicableRules: applicable,
		OverallScore:    score,
		OverallStatus:   overallStatus(score),
		EvaluatedAt:     time.Now().UTC(),
	}
}

func (e *Evaluator) checkRule(proposal Proposal, r Rule) RuleResult {
	res := RuleResult{
		RuleID:   r.ID,
		ClauseNo: r.ClauseNo,
		Category: string(r.Category),
		RuleText: r.Text,
	}

	keys, comparable := allowedKeys[r.Category]
	if !comparable {
		res.Status = StatusInformational
		return res
	}

	allowed, allowedPresent := pickNumber(r.Details, keys)
	proposed, proposedPresent := pickNumber(proposal.Parameters, proposalKeys[r.Category])
	res.Allowed = allowed
	res.Proposed = proposed

	// Absent and malformed are distinct outcomes: missing data is simply
	// not applicable, data that exists but will not coerce is invalid.
	if !allowedPresent || !proposedPresent {
		res.Status = StatusNotApplicable
		return res
	}
	if allowed == nil || proposed == nil {
		res.Status = StatusInvalid
		return res
	}

	switch {
	case *proposed <= *allowed:
		res.Status = StatusCompliant
	case *proposed <= *allowed*e.tolerance:
		res.Status = StatusPartial
	default:
		res.Status = StatusNonCompliant
	}

	return res
}

func overallStatus(score float64) OverallStatus {
	switch {
	case score >= compliantThreshold:
		return OverallCompliant
	case score >= partialThreshold:
		return OverallPartiallyCompliant
	default:
		return OverallNonCompliant
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
