package grade

import (
	"context"
	"math"
	"time"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
)

// Scores are out of MaxScore, in steps of one decimal.
const MaxScore = 10.0

type Grade struct {
	ID            int64     `json:"id"`
	GroupID       int64     `json:"groupId"`
	GroupName     string    `json:"groupName"`
	DocumentID    *int64    `json:"documentId"`
	DocumentTitle string    `json:"documentTitle"`
	Score         float64   `json:"score"`
	Feedback      string    `json:"feedback"`
	GradedByID    int64     `json:"gradedById"`
	GradedByName  string    `json:"gradedByName"`
	IsFinal       bool      `json:"isFinal"`
	GradedAt      time.Time `json:"gradedAt"`
}

// Form is the body of `POST /grades`. Grades recorded by committee members are provisional.
type Form struct {
	GroupID    int64    `json:"groupId" validate:"required"`
	DocumentID *int64   `json:"documentId,omitempty"`
	Score      *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Feedback   string   `json:"feedback" validate:"required,notblank"`
	IsFinal    bool     `json:"isFinal"`
}

// Clean trims the feedback, rounds the score to one decimal and forces the grade provisional.
func (f *Form) Clean() {
	f.Feedback = core.CleanString(f.Feedback)
	if f.Score != nil {
		s := math.Round(*f.Score*10) / 10
		f.Score = &s
	}
	f.IsFinal = false
}

// Repository is the grade side of the REST API.
type Repository interface {
	GroupGrades(ctx context.Context, groupID int64) ([]Grade, error)
	// AllGrades lists every grade, final or not (FYP committee only).
	AllGrades(ctx context.Context) ([]Grade, error)
	GradableDocuments(ctx context.Context) ([]document.Document, error)
	CreateGrade(ctx context.Context, form Form) (Grade, error)
	FinalizeGrade(ctx context.Context, gradeID int64) error
}
