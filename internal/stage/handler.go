package stage

import (
	"context"
)

// Runner is one pipeline stage. Run processes every eligible ledger item and
// reports per-item outcomes; a returned error means the stage itself could
// not proceed (ledger unreadable, collaborator misconfigured).
type Runner interface {
	Name() string
	Run(ctx context.Context) (*Report, error)
}
