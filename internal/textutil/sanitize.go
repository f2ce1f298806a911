package textutil

import "strings"

// fileNameReplacer maps each filesystem-unsafe character to an underscore.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFileName derives the on-disk base name for a title. Every character
// in <>:"/\|?* becomes an underscore; nothing else changes, so titles that
// differ only in those characters collide.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}
