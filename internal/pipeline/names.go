package pipeline

import (
	"fmt"

	"reelpipe/internal/ledger"
)

// Stage names accepted by Run and the CLI.
const (
	StageDiscover = "discover"
	StageShorts   = "shorts"
	StageFetch    = "fetch"
	StageRelabel  = "relabel"
	StageCheck    = "check"
	StagePromote  = "promote"
	StageEdit     = "edit"
	StageRewrite  = "rewrite"
	StagePublish  = "publish"
	StagePrune    = "prune"
	StageAdd      = "add"
)

// DefaultOrder is the stage sequence of a full run.
var DefaultOrder = []string{
	StageDiscover,
	StageShorts,
	StageFetch,
	StageRelabel,
	StageCheck,
	StagePromote,
	StageEdit,
	StageRewrite,
	StagePublish,
	StagePrune,
}

// idleNote is the summary line of a batch stage that found no items in status.
func idleNote(status ledger.Status) string {
	return fmt.Sprintf("ℹ️ No hay videos con estado '%s' para procesar.", status)
}
