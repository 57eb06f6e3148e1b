package document

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/trezcool/fypdesk/core"
)

type Status string

// Statuses
const (
	StatusDraft             Status = "DRAFT"
	StatusSubmitted         Status = "SUBMITTED"
	StatusUnderReview       Status = "UNDER_REVIEW" // legacy, never produced by the review flow
	StatusApproved          Status = "APPROVED"
	StatusRevisionRequested Status = "REVISION_REQUESTED"
	StatusRejected          Status = "REJECTED"
	StatusGraded            Status = "GRADED"
)

var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusRevisionRequested,
	StatusRejected,
	StatusGraded,
}

func (s Status) String() string { return string(s) }

// Reviewed reports whether a reviewer already acted on a document in this status.
func (s Status) Reviewed() bool {
	switch s {
	case StatusApproved, StatusRevisionRequested, StatusRejected, StatusGraded:
		return true
	}
	return false
}

type Type string

// Types
const (
	TypeProposal       Type = "PROPOSAL"
	TypeProgressReport Type = "PROGRESS_REPORT"
	TypeFinalReport    Type = "FINAL_REPORT"
	TypePresentation   Type = "PRESENTATION"
)

var Types = []Type{TypeProposal, TypeProgressReport, TypeFinalReport, TypePresentation}

func (t Type) Label() string { return core.Humanize(string(t)) }

func IsType(s string) bool {
	for _, t := range Types {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Action is a control a role may be offered on a document or grade.
type Action string

// Actions
const (
	ActionSubmit          Action = "submit"
	ActionViewFeedback    Action = "view_feedback"
	ActionApprove         Action = "approve"
	ActionRequestRevision Action = "request_revision"
	ActionGrade           Action = "grade"
	ActionFinalize        Action = "finalize"
)

// Decision is the review verdict sent to the API.
type Decision string

const (
	DecisionApprove  Decision = "APPROVE"
	DecisionRevision Decision = "REVISION"
)

// Action returns the document action a review decision corresponds to.
func (d Decision) Action() (Action, bool) {
	switch d {
	case DecisionApprove:
		return ActionApprove, true
	case DecisionRevision:
		return ActionRequestRevision, true
	}
	return "", false
}

type Document struct {
	ID              int64      `json:"id"`
	GroupID         int64      `json:"groupId"`
	GroupName       string     `json:"groupName"`
	ProjectTitle    string     `json:"projectTitle"`
	SupervisorName  string     `json:"supervisorName"`
	Title           string     `json:"title"`
	Type            Type       `json:"type"`
	Version         int        `json:"version"`
	FilePath        string     `json:"filePath"`
	Status          Status     `json:"status"`
	UploadedByID    int64      `json:"uploadedById"`
	UploadedByName  string     `json:"uploadedByName"`
	UploadedByEmail string     `json:"uploadedByEmail"`
	DeadlineID      *int64     `json:"deadlineId"`
	DeadlineTitle   string     `json:"deadlineTitle"`
	DeadlineDate    *time.Time `json:"deadlineDate"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	IsLate          bool       `json:"isLate"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// DownloadPath is the `/uploads`-rooted path of the stored file, with backslashes turned into slashes.
// It is empty when the document has no file.
func (d Document) DownloadPath() string {
	return NormalizeFilePath(d.FilePath)
}

// NormalizeFilePath roots a stored file path under /uploads. Paths with `..` segments
// are refused with an empty result.
func NormalizeFilePath(fp string) string {
	fp = strings.Trim(strings.ReplaceAll(strings.TrimSpace(fp), `\`, "/"), "/")
	for _, seg := range strings.Split(fp, "/") {
		if seg == ".." {
			return ""
		}
	}
	fp = path.Clean(fp)
	if fp == "." || fp == "uploads" {
		return ""
	}
	if !strings.HasPrefix(fp, "uploads/") {
		fp = "uploads/" + fp
	}
	return "/" + fp
}

// Review is an immutable review record.
type Review struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"documentId"`
	DocumentTitle string    `json:"documentTitle"`
	ReviewerID    int64     `json:"reviewerId"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail"`
	Comments      string    `json:"comments"`
	Status        Status    `json:"status"`
	ReviewedAt    time.Time `json:"reviewedAt"`
}

// UploadForm is the multipart upload of a new document or a new version.
type UploadForm struct {
	Title    string    `json:"title" validate:"required,notblank"`
	Type     Type      `json:"type" validate:"required,doctype"`
	FileName string    `json:"file" validate:"required,notblank"`
	File     io.Reader `json:"-"`
	GroupID  int64     `json:"groupId"`
}

func (uf *UploadForm) Clean() {
	uf.Title = core.CleanString(uf.Title)
	uf.FileName = core.CleanString(uf.FileName)
	if uf.Type == "" {
		uf.Type = TypeProposal
	}
}

// ReviewForm is the body of `PUT /documents/:id/review`.
type ReviewForm struct {
	Decision Decision `json:"action" validate:"required,oneof=APPROVE REVISION"`
	Comments string   `json:"comments" validate:"required,notblank"`
}
