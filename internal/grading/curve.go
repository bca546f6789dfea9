package grading

import (
	"errors"
	"fmt"
	"math"
)

// CurveKind tags the variant held by a CurvePolicy.
type CurveKind string

const (
	// CurveFlat adds a fixed number of points to every score.
	CurveFlat CurveKind = "FLAT"
	// CurvePercentageBoost multiplies every score by a factor.
	CurvePercentageBoost CurveKind = "PERCENTAGE_BOOST"
	// CurveSquareRoot maps s to sqrt(s)*10.
	CurveSquareRoot CurveKind = "SQUARE_ROOT"
	// CurveBell rescales scores to a target mean and standard deviation.
	CurveBell CurveKind = "BELL_CURVE"
)

// ErrUnknownCurve is returned by Validate for an unrecognised policy kind.
var ErrUnknownCurve = errors.New("unknown curve policy")

// CurvePolicy is a rule for transforming a ScoreSet. Only the fields relevant to
// Kind are read.
type CurvePolicy struct {
	Kind         CurveKind `json:"kind"`
	Points       float64   `json:"points,omitempty"`
	Factor       float64   `json:"factor,omitempty"`
	TargetMean   float64   `json:"target_mean,omitempty"`
	TargetStdDev float64   `json:"target_std_dev,omitempty"`
}

// Flat builds a flat addend policy.
func Flat(points float64) CurvePolicy {
	return CurvePolicy{Kind: CurveFlat, Points: points}
}

// PercentageBoost builds a multiplier policy.
func PercentageBoost(factor float64) CurvePolicy {
	return CurvePolicy{Kind: CurvePercentageBoost, Factor: factor}
}

// SquareRoot builds the parameterless square-root policy.
func SquareRoot() CurvePolicy {
	return CurvePolicy{Kind: CurveSquareRoot}
}

// BellCurve builds a mean/standard deviation rescale policy.
func BellCurve(targetMean, targetStdDev float64) CurvePolicy {
	return CurvePolicy{Kind: CurveBell, TargetMean: targetMean, TargetStdDev: targetStdDev}
}

// Validate checks that the policy kind is known and its parameters are usable numbers.
// The declared UI ranges are not enforced here.
func (p CurvePolicy) Validate() error {
	switch p.Kind {
	case CurveFlat:
		return finite("points", p.Points)
	case CurvePercentageBoost:
		if err := finite("factor", p.Factor); err != nil {
			return err
		}
		if p.Factor < 0 {
			return fmt.Errorf("factor must not be negative")
		}
	case CurveSquareRoot:
	case CurveBell:
		if err := finite("target mean", p.TargetMean); err != nil {
			return err
		}
		if err := finite("target std dev", p.TargetStdDev); err != nil {
			return err
		}
		if p.TargetStdDev < 0 {
			return fmt.Errorf("target std dev must not be negative")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCurve, p.Kind)
	}
	return nil
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	return nil
}

// ParamRange is a declared UI range with a default value.
type ParamRange struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// PolicyRanges returns the declared parameter ranges for every curve kind.
func PolicyRanges() map[CurveKind][]ParamRange {
	return map[CurveKind][]ParamRange{
		CurveFlat:            {{Name: "points", Min: 1, Max: 30, Step: 1, Default: 5}},
		CurvePercentageBoost: {{Name: "factor", Min: 1.01, Max: 1.50, Step: 0.01, Default: 1.10}},
		CurveSquareRoot:      {},
		CurveBell: {
			{Name: "target_mean", Min: 60, Max: 95, Step: 1, Default: 75},
			{Name: "target_std_dev", Min: 3, Max: 20, Step: 1, Default: 10},
		},
	}
}

// ApplyCurve returns a new ScoreSet with policy applied to every score.
// The input is never modified. Unknown kinds return an unchanged copy.
func ApplyCurve(scores ScoreSet, policy CurvePolicy) ScoreSet {
	out := make(ScoreSet, len(scores))
	switch policy.Kind {
	case CurveFlat:
		for i, s := range scores {
			out[i] = Clamp(s + policy.Points)
		}
	case CurvePercentageBoost:
		for i, s := range scores {
			out[i] = Clamp(s * policy.Factor)
		}
	case CurveSquareRoot:
		for i, s := range scores {
			// negative input maps to 0
			out[i] = Clamp(math.Sqrt(math.Max(s, 0)) * 10)
		}
	case CurveBell:
		mean, sd := meanStdDev(scores)
		if uniform(scores, mean, sd) {
			copy(out, scores)
			return out
		}
		for i, s := range scores {
			out[i] = Clamp(policy.TargetMean + (s-mean)/sd*policy.TargetStdDev)
		}
	default:
		copy(out, scores)
	}
	return out
}

// uniform reports whether every score is the same. Rounding in the mean can leave
// a tiny non-zero sd for identical fractional scores, so sd is compared with a
// relative tolerance as well.
func uniform(scores ScoreSet, mean, sd float64) bool {
	if len(scores) == 0 || sd == 0 {
		return true
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	if lo == hi {
		return true
	}
	return sd <= 1e-9*math.Max(1, math.Abs(mean))
}

// CurvePreview holds the outcome of applying a policy without persisting it.
type CurvePreview struct {
	Policy   CurvePolicy `json:"policy"`
	Original ScoreSet    `json:"original"`
	Curved   ScoreSet    `json:"curved"`
	Before   Statistics  `json:"before"`
	After    Statistics  `json:"after"`
}

// Preview applies policy and reports statistics before and after.
func Preview(scores ScoreSet, policy CurvePolicy) CurvePreview {
	curved := ApplyCurve(scores, policy)
	original := make(ScoreSet, len(scores))
	copy(original, scores)
	return CurvePreview{
		Policy:   policy,
		Original: original,
		Curved:   curved,
		Before:   ComputeStatistics(original),
		After:    ComputeStatistics(curved),
	}
}
