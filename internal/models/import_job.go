package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Import job statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRolledBack = "rolled_back"
)

// Duplicate handling strategies
const (
	DuplicateSkip      = "skip"
	DuplicateOverwrite = "overwrite"
	DuplicateMerge     = "merge"
)

// IsTerminalStatus reports whether a job in this status accepts no further
// pipeline mutations.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusRolledBack
}

// ValidDuplicateHandling reports whether the given strategy is one the
// batch writer knows how to apply.
func ValidDuplicateHandling(strategy string) bool {
	switch strategy {
	case DuplicateSkip, DuplicateOverwrite, DuplicateMerge:
		return true
	}
	return false
}

type ImportJob struct {
	ID                    int              `db:"id" json:"id"`
	JobCode               string           `db:"job_code" json:"job_code"`
	CompanyID             string           `db:"company_id" json:"company_id"`
	UserID                string           `db:"user_id" json:"user_id"`
	EntityType            string           `db:"entity_type" json:"entity_type"`
	SourcePlatform        string           `db:"source_platform" json:"source_platform,omitempty"`
	MappingID             string           `db:"mapping_id" json:"mapping_id,omitempty"`
	IsDryRun              bool             `db:"is_dry_run" json:"is_dry_run"`
	DuplicateHandling     string           `db:"duplicate_handling" json:"duplicate_handling"`
	Mappings              FieldMappingList `db:"mappings" json:"mappings"`
	TotalRows             int              `db:"total_rows" json:"total_rows"`
	SuccessfulRows        int              `db:"successful_rows" json:"successful_rows"`
	FailedRows            int              `db:"failed_rows" json:"failed_rows"`
	Status                string           `db:"status" json:"status"`
	ErrorMessage          string           `db:"error_message" json:"error_message"`
	ErrorLog              ImportErrorLog   `db:"error_log" json:"error_log"`
	EstimatedSeconds      int              `db:"estimated_seconds" json:"estimated_seconds"`
	RollbackEligibleUntil time.Time        `db:"rollback_eligible_until" json:"rollback_eligible_until"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`
}

// ImportError is one entry in a job's error log.
type ImportError struct {
	RowIndex int    `json:"row_index"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Error log ring caps: the log keeps the first errorLogHead entries and the
// most recent errorLogTail entries, plus a running total, so a garbage import
// of a million rows cannot grow the job row without bound.
const (
	errorLogHead = 50
	errorLogTail = 50
)

// ImportErrorLog is the capped error log stored as a JSON column on the job
// row. Append keeps insertion order within the head and tail windows.
type ImportErrorLog struct {
	First []ImportError `json:"first,omitempty"`
	Last  []ImportError `json:"last,omitempty"`
	Total int           `json:"total"`
}

// Append adds entries to the log, filling the head window first and rolling
// the tail window afterwards.
func (l *ImportErrorLog) Append(entries ...ImportError) {
	for _, e := range entries {
		l.Total++
		if len(l.First) < errorLogHead {
			l.First = append(l.First, e)
			continue
		}
		l.Last = append(l.Last, e)
		if len(l.Last) > errorLogTail {
			l.Last = l.Last[len(l.Last)-errorLogTail:]
		}
	}
}

// Entries returns the retained entries (head then tail) in order.
func (l ImportErrorLog) Entries() []ImportError {
	out := make([]ImportError, 0, len(l.First)+len(l.Last))
	out = append(out, l.First...)
	out = append(out, l.Last...)
	return out
}

func (l ImportErrorLog) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ImportErrorLog) Scan(src interface{}) error {
	if src == nil {
		*l = ImportErrorLog{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported error_log column type %T", src)
	}
	if len(data) == 0 {
		*l = ImportErrorLog{}
		return nil
	}
	return json.Unmarshal(data, l)
}
