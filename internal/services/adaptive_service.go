package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kyuwon/physioprep/internal/bkt"
	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

// AdaptiveService selects remediation questions targeted at a user's
// weakest question types.
type AdaptiveService interface {
	AdaptiveQuestions(ctx context.Context, userID string, n int) ([]models.RecommendedQuestion, error)
}

type adaptiveService struct {
	mastery   MasteryService
	questions repository.QuestionRepository
}

// NewAdaptiveService creates a new AdaptiveService
func NewAdaptiveService(mastery MasteryService, questions repository.QuestionRepository) AdaptiveService {
	return &adaptiveService{mastery: mastery, questions: questions}
}

const (
	defaultAdaptiveCount = 10
	perCollectionDraw    = 3
	maxTargetTypes       = 3
)

func (s *adaptiveService) AdaptiveQuestions(ctx context.Context, userID string, n int) ([]models.RecommendedQuestion, error) {
	log := logger.FromContext(ctx)

	if n <= 0 {
		n = defaultAdaptiveCount
	}

	weak, err := s.mastery.WeakTypes(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if len(weak) == 0 {
		log.Debug("no weak types for user %s, using balanced fallback", userID)
		return s.balancedFallback(ctx, n)
	}

	if len(weak) > maxTargetTypes {
		weak = weak[:maxTargetTypes]
	}

	collections, err := s.questions.Collections(ctx)
	if err != nil {
		return nil, errors.NewStorageError("list collections", err)
	}

	selected := make([]models.RecommendedQuestion, 0, n)
	usedTypes := make([]string, 0, len(weak))

	for _, w := range weak {
		if len(selected) >= n {
			break
		}
		target := targetDifficulty(w.Mastery)
		usedTypes = append(usedTypes, w.Type)

		for _, collection := range collections {
			if len(selected) >= n {
				break
			}
			questions, err := s.questions.RandomByTypeAndDifficulty(ctx, collection, w.Type, string(target), perCollectionDraw)
			if err != nil {
				return nil, errors.NewStorageError("sample adaptive questions", err)
			}
			for _, q := range questions {
				if len(selected) >= n {
					break
				}
				selected = append(selected, models.RecommendedQuestion{
					QuestionID:     q.ID,
					Type:           q.Type,
					Difficulty:     q.Difficulty,
					CurrentMastery: w.Mastery,
					Reason:         fmt.Sprintf("weak type %q (mastery %.2f), practicing at %s difficulty", w.Type, w.Mastery, target),
				})
			}
		}
	}

	if len(selected) < n {
		backfill, err := s.questions.RandomExcludingTypes(ctx, usedTypes, n-len(selected))
		if err != nil {
			return nil, errors.NewStorageError("sample backfill questions", err)
		}
		for _, q := range backfill {
			selected = append(selected, models.RecommendedQuestion{
				QuestionID: q.ID,
				Type:       q.Type,
				Difficulty: q.Difficulty,
				Reason:     "broadening coverage beyond weak types",
			})
		}
	}

	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > n {
		selected = selected[:n]
	}

	log.Debug("selected %d adaptive questions for user %s", len(selected), userID)
	return selected, nil
}

func (s *adaptiveService) balancedFallback(ctx context.Context, n int) ([]models.RecommendedQuestion, error) {
	questions, err := s.questions.RandomSample(ctx, n)
	if err != nil {
		return nil, errors.NewStorageError("sample fallback questions", err)
	}

	selected := make([]models.RecommendedQuestion, 0, len(questions))
	for _, q := range questions {
		selected = append(selected, models.RecommendedQuestion{
			QuestionID: q.ID,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Reason:     "no weak types identified, balanced random sample",
		})
	}
	return selected, nil
}

// targetDifficulty maps mastery to remediation difficulty: the weaker the
// mastery, the easier the material.
func targetDifficulty(mastery float64) bkt.Difficulty {
	switch {
	case mastery < 0.3:
		return bkt.Easy
	case mastery < 0.5:
		return bkt.Medium
	default:
		return bkt.Hard
	}
}
