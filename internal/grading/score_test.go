package grading_test

import (
	"testing"

	"github.com/kyuwon/physioprep/internal/bkt"
	"github.com/kyuwon/physioprep/internal/grading"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 2, grading.PointsFor(bkt.Easy))
	assert.Equal(t, 3, grading.PointsFor(bkt.Medium))
	assert.Equal(t, 5, grading.PointsFor(bkt.Hard))
}

func TestGrade(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Difficulty: "easy", AnswerKey: 1, Problem: "q1"},
		{ID: 2, Difficulty: "medium", AnswerKey: 2, Problem: "q2"},
		{ID: 3, Difficulty: "hard", AnswerKey: 3, Problem: "q3"},
	}
	answers := map[int64]int{1: 1, 2: 4, 3: 3}

	score, results := grading.Grade(questions, answers)

	// 2 + 5 earned of 10 possible.
	assert.Equal(t, 70, score)
	require.Len(t, results, 3)
	assert.True(t, results[0].IsCorrect)
	assert.Equal(t, 2, results[0].PointsEarned)
	assert.False(t, results[1].IsCorrect)
	assert.Equal(t, 0, results[1].PointsEarned)
	assert.True(t, results[2].IsCorrect)
	assert.Equal(t, 5, results[2].PointsEarned)
}

func TestGrade_MissingAnswerCountsWrong(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Difficulty: "easy", AnswerKey: 1},
	}

	score, results := grading.Grade(questions, map[int64]int{})

	assert.Equal(t, 0, score)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsCorrect)
	assert.Equal(t, 0, results[0].StudentAnswer)
}

func TestGrade_NoQuestions(t *testing.T) {
	score, results := grading.Grade(nil, nil)
	assert.Equal(t, 0, score)
	assert.Empty(t, results)
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "low"},
		{49, "low"},
		{50, "medium"},
		{79, "medium"},
		{80, "high"},
		{100, "high"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grading.LevelForScore(tt.score), "score=%d", tt.score)
	}
}

func TestCombinedScore(t *testing.T) {
	combined, level := grading.CombinedScore(80, 0.5)
	assert.InDelta(t, 71.0, combined, 1e-9)
	assert.Equal(t, "medium", level)

	combined, level = grading.CombinedScore(90, 0.8)
	assert.InDelta(t, 87.0, combined, 1e-9)
	assert.Equal(t, "high", level)

	combined, level = grading.CombinedScore(40, 0.3)
	assert.InDelta(t, 37.0, combined, 1e-9)
	assert.Equal(t, "low", level)
}
