package services

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kyuwon/physioprep/internal/bkt"
	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

// GeneralType is the sentinel substituted when a question carries no type
// annotation. Never surfaced as an error.
const GeneralType = "general"

// MasteryService is the knowledge-tracking engine: it owns all reads and
// writes of per-user mastery records.
type MasteryService interface {
	GetOrCreate(ctx context.Context, userID string) (*models.MasteryRecord, error)
	UpdateWithAnswer(ctx context.Context, userID string, question models.QuestionInfo, isCorrect bool) (*models.UpdateResult, error)
	WeakTypes(ctx context.Context, userID string, threshold float64) ([]models.WeakType, error)
	MasteryReport(ctx context.Context, userID string) (*models.MasteryReport, error)
	TypeSummary(ctx context.Context, userID string) (*models.TypeSummary, error)
	TypePerformance(ctx context.Context, userID, qtype string) (*models.TypePerformance, error)
	AvailableTypes(ctx context.Context) ([]string, error)
	Reset(ctx context.Context, userID string) (bool, error)
}

const lockStripes = 64

type masteryService struct {
	mastery   repository.MasteryRepository
	questions repository.QuestionRepository

	// Per-user striped locks serialize the read-modify-write update cycle.
	// Storage is last-writer-wins, so without this two rapid submissions
	// for the same user could lose an update.
	locks [lockStripes]sync.Mutex
}

// NewMasteryService creates a new MasteryService
func NewMasteryService(mastery repository.MasteryRepository, questions repository.QuestionRepository) MasteryService {
	return &masteryService{mastery: mastery, questions: questions}
}

func (s *masteryService) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *masteryService) GetOrCreate(ctx context.Context, userID string) (*models.MasteryRecord, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.getOrCreateLocked(ctx, userID)
}

// getOrCreateLocked must be called with the user's stripe lock held.
func (s *masteryService) getOrCreateLocked(ctx context.Context, userID string) (*models.MasteryRecord, error) {
	log := logger.FromContext(ctx)

	record, err := s.mastery.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get mastery record", err)
	}
	if record != nil {
		return record, nil
	}

	log.Info("creating mastery record: user_id=%s", userID)

	types, err := s.discoverTypes(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record = &models.MasteryRecord{
		UserID:         userID,
		TypeMastery:    make(map[string]*models.TypeMastery, len(types)),
		OverallMastery: bkt.DefaultInitialMastery,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, t := range types {
		record.TypeMastery[t] = &models.TypeMastery{
			MasteryProbability:    bkt.DefaultInitialMastery,
			LastUpdated:           now,
			DifficultyPerformance: make(map[string]*models.DifficultyPerformance),
		}
	}

	if err := s.mastery.Upsert(ctx, record); err != nil {
		return nil, errors.NewStorageError("create mastery record", err)
	}
	return record, nil
}

func (s *masteryService) discoverTypes(ctx context.Context) ([]string, error) {
	raw, err := s.questions.DistinctTypes(ctx)
	if err != nil {
		return nil, errors.NewStorageError("discover question types", err)
	}

	var types []string
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" {
			types = append(types, t)
		}
	}
	return types, nil
}

func (s *masteryService) UpdateWithAnswer(ctx context.Context, userID string, question models.QuestionInfo, isCorrect bool) (*models.UpdateResult, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return nil, errors.NewValidationError("user_id", "cannot be empty")
	}

	qtype := strings.TrimSpace(question.Type)
	if qtype == "" {
		qtype = GeneralType
	}
	difficulty := bkt.ParseDifficulty(question.Difficulty)
	params := bkt.ParamsFor(difficulty)

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.getOrCreateLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	tm := record.TypeMastery[qtype]
	if tm == nil {
		// Type unseen at record creation: seed at the difficulty prior.
		tm = &models.TypeMastery{
			MasteryProbability:    params.Prior,
			DifficultyPerformance: make(map[string]*models.DifficultyPerformance),
		}
		record.TypeMastery[qtype] = tm
	}
	if tm.DifficultyPerformance == nil {
		tm.DifficultyPerformance = make(map[string]*models.DifficultyPerformance)
	}

	previous := tm.MasteryProbability
	tm.MasteryProbability = bkt.Update(previous, isCorrect, params)
	tm.TotalAttempts++
	record.TotalAttempts++
	if isCorrect {
		tm.CorrectAnswers++
		record.TotalCorrect++
	}

	dp := tm.DifficultyPerformance[string(difficulty)]
	if dp == nil {
		dp = &models.DifficultyPerformance{Mastery: bkt.InitialDifficultyMastery(difficulty)}
		tm.DifficultyPerformance[string(difficulty)] = dp
	}
	dp.Attempts++
	if isCorrect {
		dp.Correct++
	}
	dp.Mastery = bkt.Update(dp.Mastery, isCorrect, params)

	now := time.Now().UTC()
	tm.LastUpdated = now
	record.UpdatedAt = now
	record.OverallMastery = weightedOverallMastery(record.TypeMastery)

	if err := s.mastery.Upsert(ctx, record); err != nil {
		return nil, errors.NewStorageError("save mastery record", err)
	}

	log.Debug("mastery updated: user_id=%s, type=%s, %.4f -> %.4f", userID, qtype, previous, tm.MasteryProbability)

	return &models.UpdateResult{
		Type:            qtype,
		Difficulty:      string(difficulty),
		PreviousMastery: previous,
		UpdatedMastery:  tm.MasteryProbability,
		OverallMastery:  record.OverallMastery,
		AttemptsInType:  tm.TotalAttempts,
	}, nil
}

// weightedOverallMastery aggregates all tracked types with weight
// max(1, attempts), so untried types still count with weight 1.
func weightedOverallMastery(types map[string]*models.TypeMastery) float64 {
	if len(types) == 0 {
		return bkt.DefaultInitialMastery
	}
	var weighted, total float64
	for _, tm := range types {
		w := float64(tm.TotalAttempts)
		if w < 1 {
			w = 1
		}
		weighted += tm.MasteryProbability * w
		total += w
	}
	return weighted / total
}

func (s *masteryService) WeakTypes(ctx context.Context, userID string, threshold float64) ([]models.WeakType, error) {
	if threshold <= 0 {
		threshold = 0.6
	}

	record, err := s.mastery.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get mastery record", err)
	}
	if record == nil {
		return []models.WeakType{}, nil
	}

	weak := make([]models.WeakType, 0)
	for qtype, tm := range record.TypeMastery {
		// Unreliable estimates are never reported as weaknesses.
		if tm.TotalAttempts < bkt.ReliableAttempts || tm.MasteryProbability >= threshold {
			continue
		}
		weak = append(weak, models.WeakType{
			Type:            qtype,
			Mastery:         tm.MasteryProbability,
			Attempts:        tm.TotalAttempts,
			Accuracy:        accuracy(tm.CorrectAnswers, tm.TotalAttempts),
			ConfidenceLevel: bkt.ConfidenceLevel(tm.TotalAttempts),
		})
	}
	sort.Slice(weak, func(i, j int) bool { return weak[i].Mastery < weak[j].Mastery })
	return weak, nil
}

func (s *masteryService) MasteryReport(ctx context.Context, userID string) (*models.MasteryReport, error) {
	record, err := s.mastery.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get mastery record", err)
	}

	report := &models.MasteryReport{
		UserID:         userID,
		OverallMastery: bkt.DefaultInitialMastery,
		TypeAnalysis:   map[string]models.TypeAnalysis{},
		StrongTypes:    []models.RankedType{},
		WeakTypes:      []models.RankedType{},
	}
	if record == nil {
		return report, nil
	}

	report.OverallMastery = record.OverallMastery
	report.OverallAccuracy = accuracy(record.TotalCorrect, record.TotalAttempts)
	report.TotalAttempts = record.TotalAttempts
	report.TotalCorrect = record.TotalCorrect
	report.LastUpdated = record.UpdatedAt

	var reliableWeighted, reliableWeight float64
	for qtype, tm := range record.TypeMastery {
		if tm.TotalAttempts == 0 {
			continue
		}

		a := bkt.Assess(tm.MasteryProbability, tm.TotalAttempts)
		report.TypeAnalysis[qtype] = models.TypeAnalysis{
			Mastery:               tm.MasteryProbability,
			Level:                 a.Level,
			Attempts:              tm.TotalAttempts,
			Accuracy:              accuracy(tm.CorrectAnswers, tm.TotalAttempts),
			ConfidenceLevel:       a.ConfidenceLevel,
			IsReliable:            a.IsReliable,
			IsMasteryReady:        a.IsMasteryReady,
			NeedsMorePractice:     a.NeedsMorePractice,
			LastUpdated:           tm.LastUpdated,
			DifficultyPerformance: tm.DifficultyPerformance,
		}
		report.TotalTypesTracked++

		ranked := models.RankedType{Type: qtype, Mastery: tm.MasteryProbability, Attempts: tm.TotalAttempts}
		if a.IsReliable {
			report.ReliableTypesCount++
			reliableWeighted += tm.MasteryProbability * float64(tm.TotalAttempts)
			reliableWeight += float64(tm.TotalAttempts)
			if tm.MasteryProbability >= 0.7 {
				report.StrongTypes = append(report.StrongTypes, ranked)
			}
			if tm.MasteryProbability < 0.5 {
				report.WeakTypes = append(report.WeakTypes, ranked)
			}
		} else {
			report.UnreliableTypesCount++
		}
	}

	// Reliable types give a better overall estimate than the stored rollup.
	if reliableWeight > 0 {
		report.OverallMastery = reliableWeighted / reliableWeight
	}

	sort.Slice(report.StrongTypes, func(i, j int) bool {
		return report.StrongTypes[i].Mastery > report.StrongTypes[j].Mastery
	})
	sort.Slice(report.WeakTypes, func(i, j int) bool {
		return report.WeakTypes[i].Mastery < report.WeakTypes[j].Mastery
	})
	if len(report.StrongTypes) > 5 {
		report.StrongTypes = report.StrongTypes[:5]
	}
	if len(report.WeakTypes) > 5 {
		report.WeakTypes = report.WeakTypes[:5]
	}

	report.ReliabilitySummary = models.ReliabilitySummary{
		TotalTested:       report.TotalTypesTracked,
		Reliable:          report.ReliableTypesCount,
		NeedsMorePractice: report.UnreliableTypesCount,
	}
	if report.TotalTypesTracked > 0 {
		report.ReliabilitySummary.ReliabilityPercentage = float64(report.ReliableTypesCount) / float64(report.TotalTypesTracked) * 100
	}
	return report, nil
}

func (s *masteryService) TypeSummary(ctx context.Context, userID string) (*models.TypeSummary, error) {
	record, err := s.mastery.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get mastery record", err)
	}

	summary := &models.TypeSummary{OverallMastery: bkt.DefaultInitialMastery}
	if record == nil {
		return summary, nil
	}

	summary.OverallMastery = record.OverallMastery
	for _, tm := range record.TypeMastery {
		if tm.TotalAttempts == 0 {
			continue
		}
		summary.TotalTypes++
		switch {
		case tm.MasteryProbability >= 0.7:
			summary.MasteredTypes++
		case tm.MasteryProbability >= 0.45:
			summary.LearningTypes++
		default:
			summary.WeakTypes++
		}
	}
	return summary, nil
}

func (s *masteryService) TypePerformance(ctx context.Context, userID, qtype string) (*models.TypePerformance, error) {
	record, err := s.mastery.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get mastery record", err)
	}
	if record == nil {
		return nil, errors.NewNotFoundError("mastery record", userID)
	}
	tm := record.TypeMastery[qtype]
	if tm == nil {
		return nil, errors.NewNotFoundError("question type", qtype)
	}

	return &models.TypePerformance{
		Type:                qtype,
		MasteryProbability:  tm.MasteryProbability,
		TotalAttempts:       tm.TotalAttempts,
		CorrectAnswers:      tm.CorrectAnswers,
		Accuracy:            accuracy(tm.CorrectAnswers, tm.TotalAttempts),
		LastUpdated:         tm.LastUpdated,
		DifficultyBreakdown: tm.DifficultyPerformance,
	}, nil
}

func (s *masteryService) AvailableTypes(ctx context.Context) ([]string, error) {
	return s.discoverTypes(ctx)
}

func (s *masteryService) Reset(ctx context.Context, userID string) (bool, error) {
	log := logger.FromContext(ctx)
	log.Info("resetting mastery record: user_id=%s", userID)

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	deleted, err := s.mastery.Delete(ctx, userID)
	if err != nil {
		return false, errors.NewStorageError("delete mastery record", err)
	}
	return deleted, nil
}

func accuracy(correct, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}
