package models

import "time"

// TestSubmission carries a user's answers keyed by question ID.
type TestSubmission struct {
	UserID  string        `json:"user_id"`
	Answers map[int64]int `json:"answers"`
}

// QuestionResult is the graded outcome for one answered question.
type QuestionResult struct {
	QuestionID    int64    `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	Choices       []string `json:"choices"`
	Type          string   `json:"type"`
	Difficulty    string   `json:"difficulty"`
	CorrectAnswer int      `json:"correct_answer"`
	StudentAnswer int      `json:"student_answer"`
	IsCorrect     bool     `json:"is_correct"`
	PointsEarned  int      `json:"points_earned"`
}

// TestRecord is one stored test outcome. Details holds the per-question
// results as a JSON document.
type TestRecord struct {
	ID             int64            `json:"id"`
	UserID         string           `json:"user_id"`
	TestType       string           `json:"test_type"`
	TotalScore     int              `json:"total_score"`
	Level          string           `json:"level"`
	CombinedScore  float64          `json:"combined_score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Details        []QuestionResult `json:"detailed_results"`
	CreatedAt      time.Time        `json:"created_at"`
}

// UserLevel is the latest level placement for a user.
type UserLevel struct {
	UserID        string    `json:"user_id"`
	Level         string    `json:"level"`
	TestScore     int       `json:"test_score"`
	CombinedScore float64   `json:"combined_score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LevelTestInfo summarizes the tier composition of an assembled level test.
type LevelTestInfo struct {
	TotalQuestions  int `json:"total_questions"`
	EasyQuestions   int `json:"easy_questions"`
	MediumQuestions int `json:"medium_questions"`
	HardQuestions   int `json:"hard_questions"`
}

// LevelTest is an assembled diagnosis test.
type LevelTest struct {
	Questions []Question    `json:"test"`
	Info      LevelTestInfo `json:"test_info"`
}

// TestResult is the response to a graded submission.
type TestResult struct {
	Score          int              `json:"score"`
	Level          string           `json:"level"`
	CombinedScore  float64          `json:"combined_score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Results        []QuestionResult `json:"results"`
}

// PracticeResult is the graded outcome of a single practice answer.
type PracticeResult struct {
	QuestionID      int64         `json:"question_id"`
	IsCorrect       bool          `json:"is_correct"`
	CorrectAnswer   int           `json:"correct_answer"`
	StudentAnswer   int           `json:"student_answer"`
	KnowledgeUpdate *UpdateResult `json:"knowledge_update,omitempty"`
}
