package stage

import (
	"strings"

	"reelpipe/internal/ledger"
	"reelpipe/internal/notifications"
	"reelpipe/internal/services"
)

// Report collects per-item outcomes of one stage run.
type Report struct {
	Heading   string
	Succeeded []notifications.Entry
	Failed    []notifications.Entry
	Notes     []string
	// Quiet suppresses the summary notification when nothing happened.
	Quiet bool
	// IdleNote, when set, is sent as the summary of a run that found no work.
	IdleNote string
}

// NewReport starts a report with the summary heading.
func NewReport(heading string) *Report {
	return &Report{Heading: heading}
}

// Succeed records a successful item.
func (r *Report) Succeed(item ledger.WorkItem, detail string) {
	r.Succeeded = append(r.Succeeded, notifications.Entry{VideoID: item.VideoID, Title: item.Title, Detail: detail})
}

// Fail records a failed item with the error's short message.
func (r *Report) Fail(item ledger.WorkItem, err error) {
	r.Failed = append(r.Failed, notifications.Entry{VideoID: item.VideoID, Title: item.Title, Detail: ErrorDetail(err)})
}

// Note appends a free-form line.
func (r *Report) Note(line string) {
	r.Notes = append(r.Notes, line)
}

// Total is the number of items with an outcome.
func (r *Report) Total() int {
	if r == nil {
		return 0
	}
	return len(r.Succeeded) + len(r.Failed)
}

// Empty reports whether no item and no note was recorded.
func (r *Report) Empty() bool {
	return r == nil || (r.Total() == 0 && len(r.Notes) == 0)
}

// Summary converts the report for rendering.
func (r *Report) Summary() notifications.Summary {
	return notifications.Summary{
		Heading:   r.Heading,
		Total:     r.Total(),
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Notes:     r.Notes,
	}
}

// ErrorDetail trims the marker prefix services.Wrap adds, leaving the
// operator-facing part of err.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		services.ErrExternalTool, services.ErrValidation, services.ErrConfiguration,
		services.ErrNotFound, services.ErrTimeout, services.ErrTransient,
	} {
		if rest, ok := strings.CutPrefix(msg, marker.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
