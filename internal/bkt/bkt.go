// Package bkt implements Bayesian Knowledge Tracing: a two-state hidden
// Markov model that estimates the probability a learner has mastered a
// question type, updated after every answer.
//
// The model carries four parameters per difficulty tier:
//
//	slip  - probability of answering wrong despite mastery
//	guess - probability of answering right without mastery
//	learn - probability of transitioning to mastery after an attempt
//	prior - initial mastery estimate for an unseen type
//
// Harder questions slip more, reward guessing less, and teach slower.
package bkt

import "strings"

// Difficulty tiers. Unknown or missing values normalize to medium so a
// single mislabeled question can never poison a knowledge state.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty normalizes a raw difficulty label. Source material labels
// tiers in Korean (하/중/상), so those map too.
func ParseDifficulty(raw string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy", "하":
		return Easy
	case "medium", "중":
		return Medium
	case "hard", "상":
		return Hard
	default:
		return Medium
	}
}

// Params holds the BKT parameters for one difficulty tier.
type Params struct {
	Slip  float64
	Guess float64
	Learn float64
	Prior float64
}

var paramsByDifficulty = map[Difficulty]Params{
	Easy:   {Slip: 0.05, Guess: 0.20, Learn: 0.10, Prior: 0.20},
	Medium: {Slip: 0.08, Guess: 0.15, Learn: 0.08, Prior: 0.15},
	Hard:   {Slip: 0.12, Guess: 0.10, Learn: 0.05, Prior: 0.10},
}

// ParamsFor returns the parameter set for a difficulty tier.
func ParamsFor(d Difficulty) Params {
	if p, ok := paramsByDifficulty[d]; ok {
		return p
	}
	return paramsByDifficulty[Medium]
}

// Mastery probability bounds. Estimates are clamped away from 0 and 1 so
// the Bayesian posterior can always move on future evidence.
const (
	MinMastery = 0.01
	MaxMastery = 0.99
)

// DefaultInitialMastery seeds every type when a user's record is first
// created, before any answers are observed.
const DefaultInitialMastery = 0.4

// Reliability thresholds on attempt counts.
const (
	ReliableAttempts     = 5
	MasteryReadyAttempts = 8
	MasteryThreshold     = 0.8
	ProficientThreshold  = 0.65
	LearningThreshold    = 0.45
)

// Update applies one observed answer to a mastery estimate and returns the
// new estimate, clamped to [MinMastery, MaxMastery].
//
// Evidence step (Bayes):
//
//	correct:   p' = p(1-slip) / (p(1-slip) + (1-p)guess)
//	incorrect: p' = p*slip    / (p*slip    + (1-p)(1-guess))
//
// Learning step: p'' = p' + (1-p')*learn.
//
// If the evidence denominator is not positive the observation carries no
// usable signal and the prior passes through to the learning step unchanged.
func Update(mastery float64, correct bool, p Params) float64 {
	var posterior float64
	if correct {
		pCorrect := mastery*(1-p.Slip) + (1-mastery)*p.Guess
		if pCorrect <= 0 {
			posterior = mastery
		} else {
			posterior = mastery * (1 - p.Slip) / pCorrect
		}
	} else {
		pWrong := mastery*p.Slip + (1-mastery)*(1-p.Guess)
		if pWrong <= 0 {
			posterior = mastery
		} else {
			posterior = mastery * p.Slip / pWrong
		}
	}

	updated := posterior + (1-posterior)*p.Learn
	return clamp(updated)
}

func clamp(v float64) float64 {
	if v < MinMastery {
		return MinMastery
	}
	if v > MaxMastery {
		return MaxMastery
	}
	return v
}

// InitialDifficultyMastery seeds the per-tier breakdown the first time a
// tier is touched: easier tiers start with more benefit of the doubt.
func InitialDifficultyMastery(d Difficulty) float64 {
	switch d {
	case Easy:
		return 0.5
	case Hard:
		return 0.3
	default:
		return 0.4
	}
}

// ConfidenceLevel buckets an attempt count into a label describing how much
// the mastery estimate can be trusted.
func ConfidenceLevel(attempts int) string {
	switch {
	case attempts < 3:
		return "very_low"
	case attempts < ReliableAttempts:
		return "low"
	case attempts < 10:
		return "medium"
	default:
		return "high"
	}
}

// Assessment is the reliability-qualified interpretation of one estimate.
type Assessment struct {
	Mastery           float64
	Attempts          int
	ConfidenceLevel   string
	IsReliable        bool
	IsMasteryReady    bool
	Level             string
	NeedsMorePractice bool
}

// Assess interprets a mastery estimate in light of its attempt count. High
// mastery on thin evidence never reports as mastered.
func Assess(mastery float64, attempts int) Assessment {
	a := Assessment{
		Mastery:         mastery,
		Attempts:        attempts,
		ConfidenceLevel: ConfidenceLevel(attempts),
		IsReliable:      attempts >= ReliableAttempts,
		IsMasteryReady:  attempts >= MasteryReadyAttempts,
	}
	a.NeedsMorePractice = !a.IsReliable

	switch {
	case mastery >= MasteryThreshold && a.IsMasteryReady:
		a.Level = "mastered"
	case mastery >= ProficientThreshold && a.IsReliable:
		a.Level = "proficient"
	case mastery >= LearningThreshold:
		a.Level = "learning"
	default:
		a.Level = "beginner"
	}
	return a
}
