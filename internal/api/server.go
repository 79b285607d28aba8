// Package api exposes the knowledge-tracking engine and exam flows over
// HTTP. All endpoints speak JSON except the PDF ingest upload.
package api

import (
	"github.com/kyuwon/physioprep/internal/db"
	"github.com/kyuwon/physioprep/internal/repository"
	"github.com/kyuwon/physioprep/internal/services"
)

type Server struct {
	DB        *db.DB
	Mastery   services.MasteryService
	Adaptive  services.AdaptiveService
	Exam      services.ExamService
	Ingest    services.IngestService
	Questions repository.QuestionRepository
}
