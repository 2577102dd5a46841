package services

import (
	"fmt"
	"time"

	"github.com/jinzhu/inflection"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// Result is the base of every lifecycle operation outcome. It is safe to hand
// straight to the conversational caller: collaborator faults never cross this
// boundary as raw errors.
type Result struct {
	Success bool           `json:"success"`
	Code    apperrors.Code `json:"code,omitempty"`
	Message string         `json:"message"`
}

func okResult(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func errorResult(err *apperrors.Error) Result {
	return Result{Success: false, Code: err.Code, Message: err.Message}
}

// failureResult wraps an unexpected collaborator fault.
func failureResult(op string, err error) Result {
	return Result{Success: false, Message: fmt.Sprintf("%s failed: %v", op, err)}
}

// countNoun renders "1 project" / "3 projects".
func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

// DuplicateDetection reports projects near a point.
type DuplicateDetection struct {
	Result
	HasDuplicates bool                    `json:"has_duplicates"`
	Matches       []models.DuplicateMatch `json:"matches,omitempty"`
	RadiusKm      float64                 `json:"radius_km"`
}

// DuplicateCheck adds the numbered disambiguation prompt shown to the caller.
type DuplicateCheck struct {
	DuplicateDetection
	Prompt string `json:"prompt,omitempty"`
}

// Duplicate-choice actions.
const (
	ChoiceActionContinue    = "continue"
	ChoiceActionCreateNew   = "create_new"
	ChoiceActionViewDetails = "view_details"
)

// DuplicateChoiceOutcome is the result of handling a disambiguation reply.
type DuplicateChoiceOutcome struct {
	Result
	Action   string          `json:"action"`
	Selected *models.Project `json:"selected,omitempty"`
	Details  []string        `json:"details,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
}

// DeleteOutcome is the result of a single-project delete.
type DeleteOutcome struct {
	Result
	ProjectName          string `json:"project_name"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
}

// BulkDeleteOutcome is the result of a pattern delete. Per-item failures do
// not block the other members.
type BulkDeleteOutcome struct {
	Result
	Pattern              string            `json:"pattern"`
	Matched              []string          `json:"matched,omitempty"`
	Deleted              []string          `json:"deleted,omitempty"`
	Failures             map[string]string `json:"failures,omitempty"`
	RequiresConfirmation bool              `json:"requires_confirmation,omitempty"`
}

// RenameOutcome is the result of a rename.
type RenameOutcome struct {
	Result
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// MergeOutcome is the result of merging two projects.
type MergeOutcome struct {
	Result
	MergedName  string                  `json:"merged_name"`
	DeletedName string                  `json:"deleted_name"`
	Categories  []models.ResultCategory `json:"categories,omitempty"`
}

// ArchiveOutcome is the result of an archive or unarchive.
type ArchiveOutcome struct {
	Result
	ProjectName string `json:"project_name"`
	Archived    bool   `json:"archived"`
}

// ProjectList is the result of a listing or search operation.
type ProjectList struct {
	Result
	Projects []*models.Project `json:"projects"`
	Count    int               `json:"count"`
}

// DuplicateGroups is the result of a store-wide duplicate scan.
type DuplicateGroups struct {
	Result
	Groups []models.DuplicateGroup `json:"groups"`
}

// ExportOutcome carries the export envelope.
type ExportOutcome struct {
	Result
	Envelope *models.ExportEnvelope `json:"envelope,omitempty"`
}

// ImportOutcome reports the name the project landed under.
type ImportOutcome struct {
	Result
	ImportedName string `json:"imported_name,omitempty"`
	Renamed      bool   `json:"renamed,omitempty"`
}

// SaveOutcome reports a result-attachment write.
type SaveOutcome struct {
	Result
	ProjectName string `json:"project_name"`
	Created     bool   `json:"created"`
}

// DashboardEntry summarizes one project for the dashboard.
type DashboardEntry struct {
	ProjectName       string                  `json:"project_name"`
	Coordinates       *models.Coordinates     `json:"coordinates,omitempty"`
	CompletionPercent int                     `json:"completion_percent"`
	Completed         []models.ResultCategory `json:"completed,omitempty"`
	Archived          bool                    `json:"archived"`
	IsActive          bool                    `json:"is_active"`
	IsDuplicate       bool                    `json:"is_duplicate"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// Dashboard aggregates every project with completion and duplicate flags.
type Dashboard struct {
	Result
	Entries         []DashboardEntry        `json:"entries"`
	TotalProjects   int                     `json:"total_projects"`
	ActiveProject   string                  `json:"active_project,omitempty"`
	DuplicateGroups []models.DuplicateGroup `json:"duplicate_groups,omitempty"`
}
