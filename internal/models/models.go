package models

import "time"

// DifficultyPerformance tracks attempts and mastery within one difficulty tier.
type DifficultyPerformance struct {
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Mastery  float64 `json:"mastery"`
}

// TypeMastery is the per-question-type knowledge state inside a MasteryRecord.
// MasteryProbability stays in [0.01, 0.99]; it is never exactly 0 or 1 so the
// Bayesian update remains well-defined indefinitely.
type TypeMastery struct {
	MasteryProbability    float64                           `json:"mastery_probability"`
	TotalAttempts         int                               `json:"total_attempts"`
	CorrectAnswers        int                               `json:"correct_answers"`
	LastUpdated           time.Time                         `json:"last_updated"`
	DifficultyPerformance map[string]*DifficultyPerformance `json:"difficulty_performance"`
}

// MasteryRecord is the full per-user knowledge-tracking document. It is stored
// whole, keyed by UserID, and mutated only by the update-with-answer path.
type MasteryRecord struct {
	UserID         string                  `json:"user_id"`
	TypeMastery    map[string]*TypeMastery `json:"type_mastery"`
	TotalAttempts  int                     `json:"total_attempts"`
	TotalCorrect   int                     `json:"total_correct"`
	OverallMastery float64                 `json:"overall_mastery"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// Question is one corpus entry. Collection names the source bank the question
// was ingested into (e.g. "diagnosis_test", "exam_questions").
type Question struct {
	ID         int64     `json:"id"`
	Collection string    `json:"collection"`
	ProblemID  int       `json:"problem_id"`
	Type       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	Problem    string    `json:"problem"`
	Choices    []string  `json:"choices"`
	AnswerKey  int       `json:"answer_key"`
	CreatedAt  time.Time `json:"created_at"`
}

type QuestionFilter struct {
	Collection string
	Type       string
	Difficulty string
	Limit      int
	Offset     int
}

// QuestionInfo is the subset of question metadata the knowledge tracker needs.
type QuestionInfo struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

// UpdateResult reports one knowledge-state transition.
type UpdateResult struct {
	Type            string  `json:"type"`
	Difficulty      string  `json:"difficulty"`
	PreviousMastery float64 `json:"previous_mastery"`
	UpdatedMastery  float64 `json:"updated_mastery"`
	OverallMastery  float64 `json:"overall_mastery"`
	AttemptsInType  int     `json:"attempts_in_type"`
}

// WeakType is one entry in the weak-type ranking (weakest first).
type WeakType struct {
	Type            string  `json:"type"`
	Mastery         float64 `json:"mastery"`
	Attempts        int     `json:"attempts"`
	Accuracy        float64 `json:"accuracy"`
	ConfidenceLevel string  `json:"confidence_level"`
}

// TypeAnalysis is the reliability-qualified view of one tested type.
type TypeAnalysis struct {
	Mastery               float64                           `json:"mastery_probability"`
	Level                 string                            `json:"level"`
	Attempts              int                               `json:"attempts"`
	Accuracy              float64                           `json:"accuracy"`
	ConfidenceLevel       string                            `json:"confidence_level"`
	IsReliable            bool                              `json:"is_reliable"`
	IsMasteryReady        bool                              `json:"is_mastery_ready"`
	NeedsMorePractice     bool                              `json:"needs_more_practice"`
	LastUpdated           time.Time                         `json:"last_updated"`
	DifficultyPerformance map[string]*DifficultyPerformance `json:"difficulty_performance"`
}

// RankedType pairs a type with the mastery that ranked it.
type RankedType struct {
	Type     string  `json:"type"`
	Mastery  float64 `json:"mastery"`
	Attempts int     `json:"attempts"`
}

type ReliabilitySummary struct {
	TotalTested           int     `json:"total_tested"`
	Reliable              int     `json:"reliable"`
	NeedsMorePractice     int     `json:"needs_more_practice"`
	ReliabilityPercentage float64 `json:"reliability_percentage"`
}

// MasteryReport is the full per-user analysis over tested types.
type MasteryReport struct {
	UserID               string                  `json:"user_id"`
	OverallMastery       float64                 `json:"overall_mastery"`
	OverallAccuracy      float64                 `json:"overall_accuracy"`
	TotalAttempts        int                     `json:"total_attempts"`
	TotalCorrect         int                     `json:"total_correct"`
	TypeAnalysis         map[string]TypeAnalysis `json:"type_analysis"`
	StrongTypes          []RankedType            `json:"strong_types"`
	WeakTypes            []RankedType            `json:"weak_types"`
	TotalTypesTracked    int                     `json:"total_types_tracked"`
	ReliableTypesCount   int                     `json:"reliable_types_count"`
	UnreliableTypesCount int                     `json:"unreliable_types_count"`
	LastUpdated          time.Time               `json:"last_updated"`
	ReliabilitySummary   ReliabilitySummary      `json:"reliability_summary"`
}

// TypeSummary counts tested types by level band.
type TypeSummary struct {
	TotalTypes     int     `json:"total_types"`
	MasteredTypes  int     `json:"mastered_types"`
	LearningTypes  int     `json:"learning_types"`
	WeakTypes      int     `json:"weak_types"`
	OverallMastery float64 `json:"overall_mastery"`
}

// TypePerformance is the detailed view of a single type for one user.
type TypePerformance struct {
	Type                string                            `json:"type"`
	MasteryProbability  float64                           `json:"mastery_probability"`
	TotalAttempts       int                               `json:"total_attempts"`
	CorrectAnswers      int                               `json:"correct_answers"`
	Accuracy            float64                           `json:"accuracy"`
	LastUpdated         time.Time                         `json:"last_updated"`
	DifficultyBreakdown map[string]*DifficultyPerformance `json:"difficulty_breakdown"`
}

// RecommendedQuestion is an adaptive-selection result with the metadata that
// drove the choice.
type RecommendedQuestion struct {
	QuestionID     int64   `json:"question_id"`
	Type           string  `json:"type"`
	Difficulty     string  `json:"difficulty"`
	CurrentMastery float64 `json:"current_mastery"`
	Reason         string  `json:"reason"`
}
