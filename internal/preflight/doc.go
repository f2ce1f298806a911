// Package preflight checks the environment before any stage touches ledger
// items.
//
// The run command calls RunAll with the needs of the selected stages: the
// ledger, videos and uploadable directories are created when missing and
// must be read/write; ffmpeg and ffprobe plus the complement clip are
// required for edit; yt-dlp for add. A failed check aborts the run with a
// configuration error. The status command reuses the individual checks.
package preflight
