// Package grading implements raw test scoring and level placement. Questions
// are weighted by difficulty, the raw score is a 0-100 percentage of possible
// points, and placement blends the raw score with knowledge-tracking mastery.
package grading

import (
	"math"

	"github.com/kyuwon/physioprep/internal/bkt"
	"github.com/kyuwon/physioprep/internal/models"
)

// Points per difficulty tier.
const (
	PointsEasy   = 2
	PointsMedium = 3
	PointsHard   = 5
)

// PointsFor returns the point value of one question at a difficulty tier.
func PointsFor(d bkt.Difficulty) int {
	switch d {
	case bkt.Hard:
		return PointsHard
	case bkt.Medium:
		return PointsMedium
	default:
		return PointsEasy
	}
}

// Grade scores a set of answers against their questions. Questions without a
// submitted answer count as wrong with StudentAnswer 0. The returned score is
// the earned share of possible points as a rounded 0-100 percentage.
func Grade(questions []models.Question, answers map[int64]int) (int, []models.QuestionResult) {
	var earned, possible int
	results := make([]models.QuestionResult, 0, len(questions))

	for _, q := range questions {
		points := PointsFor(bkt.ParseDifficulty(q.Difficulty))
		possible += points

		answer := answers[q.ID]
		correct := answer == q.AnswerKey

		result := models.QuestionResult{
			QuestionID:    q.ID,
			QuestionText:  q.Problem,
			Choices:       q.Choices,
			Type:          q.Type,
			Difficulty:    q.Difficulty,
			CorrectAnswer: q.AnswerKey,
			StudentAnswer: answer,
			IsCorrect:     correct,
		}
		if correct {
			result.PointsEarned = points
			earned += points
		}
		results = append(results, result)
	}

	if possible == 0 {
		return 0, results
	}
	score := int(math.Round(float64(earned) / float64(possible) * 100))
	return score, results
}

// LevelForScore bands a raw 0-100 score into a placement tier.
func LevelForScore(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

// CombinedScore blends the raw score with overall mastery (70/30) and bands
// the result at 55 and 75.
func CombinedScore(rawScore float64, overallMastery float64) (float64, string) {
	combined := rawScore*0.7 + overallMastery*100*0.3
	switch {
	case combined >= 75:
		return combined, "high"
	case combined >= 55:
		return combined, "medium"
	default:
		return combined, "low"
	}
}
