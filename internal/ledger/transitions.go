package ledger

// allowedTransitions lists every legal status move. Missing-asset variants
// are keyed by their shared Kind.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusMetadataDownloaded: true,
		StatusError:              true,
		StatusMetadataUpdate:     true,
	},
	StatusMetadataDownloaded: {
		StatusMetadataUpdate: true,
	},
	StatusMetadataUpdate: {
		StatusPending: true, // sidecar missing, consistency repair
		StatusLetsGo:  true,
		statusMissing: true,
	},
	StatusLetsGo: {
		StatusEdited: true,
	},
	StatusEdited: {
		StatusOK: true,
	},
	StatusOK: {
		StatusUploading:     true,
		statusMissing:       true,
		StatusPreviewFailed: true,
	},
	StatusUploading: {
		StatusUploaded: true,
		StatusOK:       true, // publish failed or approval timed out
	},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from.Kind()]
	if !ok {
		return false
	}
	return next[to.Kind()]
}
