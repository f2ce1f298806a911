package ledger

import (
	"strings"
)

// Status is a work item's lifecycle tag as stored in the ledger.
type Status string

const (
	StatusPending            Status = "pending"
	StatusMetadataDownloaded Status = "metadata_downloaded"
	StatusError              Status = "error"
	StatusMetadataUpdate     Status = "metadata_update"
	StatusLetsGo             Status = "letsgo"
	StatusEdited             Status = "edited"
	StatusOK                 Status = "ok"
	StatusUploading          Status = "uploading"
	StatusUploaded           Status = "uploaded"
	StatusPreviewFailed      Status = "error - preview fallido"

	// statusMissing is the kind shared by every "error - faltan: <list>" tag.
	statusMissing Status = "error - faltan"
)

const missingPrefix = "error - faltan: "

var allStatuses = []Status{
	StatusPending,
	StatusMetadataDownloaded,
	StatusError,
	StatusMetadataUpdate,
	StatusLetsGo,
	StatusEdited,
	StatusOK,
	StatusUploading,
	StatusUploaded,
	StatusPreviewFailed,
	statusMissing,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// MissingAssets builds the "error - faltan: a, b" status naming the assets
// that could not be found.
func MissingAssets(assets ...string) Status {
	cleaned := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset = strings.TrimSpace(asset); asset != "" {
			cleaned = append(cleaned, asset)
		}
	}
	return Status(missingPrefix + strings.Join(cleaned, ", "))
}

// IsMissingAssets reports whether s is an "error - faltan: ..." status.
func (s Status) IsMissingAssets() bool {
	return strings.HasPrefix(string(s), missingPrefix) || s == statusMissing
}

// Kind folds every missing-assets variant onto one value so transition
// rules can treat them as a single state.
func (s Status) Kind() Status {
	if s.IsMissingAssets() {
		return statusMissing
	}
	return s
}

// IsError reports whether s excludes the item from automated retries.
func (s Status) IsError() bool {
	switch s.Kind() {
	case StatusError, StatusPreviewFailed, statusMissing:
		return true
	default:
		return false
	}
}

// AllStatuses returns the ordered list of known statuses. The missing-assets
// family is represented by its prefix without a list.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized.Kind()]
	return normalized, ok
}

// WorkItem is one tracked video in the ledger. Timestamps stay strings so
// source-native formats survive a load/save cycle unchanged.
type WorkItem struct {
	VideoID           string `json:"video_id"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	Channel           string `json:"channel,omitempty"`
	ChannelID         string `json:"channel_id,omitempty"`
	Published         string `json:"published,omitempty"`
	FoundAt           string `json:"found_at,omitempty"`
	Status            Status `json:"status"`
	SanitizedName     string `json:"sanitized_name,omitempty"`
	StatusUpdatedAt   string `json:"status_updated_at,omitempty"`
	MetadataUpdatedAt string `json:"metadata_updated_at,omitempty"`
	RewriteDegraded   bool   `json:"rewrite_degraded,omitempty"`
	YouTubeID         string `json:"youtube_id,omitempty"`
	UploadedAt        string `json:"uploaded_at,omitempty"`
}

// ChannelOrDefault returns the channel used for retention grouping.
func (w WorkItem) ChannelOrDefault() string {
	if channel := strings.TrimSpace(w.Channel); channel != "" {
		return channel
	}
	return DefaultChannel
}

// DefaultChannel groups items that carry no channel name.
const DefaultChannel = "Sin canal"

// Filter returns the items whose status is one of statuses, in ledger order.
func Filter(items []WorkItem, statuses ...Status) []WorkItem {
	want := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		want[status] = struct{}{}
	}
	out := make([]WorkItem, 0)
	for _, item := range items {
		if _, ok := want[item.Status]; ok {
			out = append(out, item)
		}
	}
	return out
}

// CountByStatus tallies items per status, folding missing-asset variants.
func CountByStatus(items []WorkItem) map[Status]int {
	counts := make(map[Status]int)
	for _, item := range items {
		counts[item.Status.Kind()]++
	}
	return counts
}
