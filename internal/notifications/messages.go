package notifications

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Escape makes s safe inside an HTML-mode message.
func Escape(s string) string {
	return html.EscapeString(s)
}

// TruncateRunes shortens s to at most width runes plus "..." when longer.
func TruncateRunes(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}

// Preview describes one item waiting for approval.
type Preview struct {
	VideoID   string
	Title     string
	VideoFile string
	Thumbnail string
}

// PreviewCaption is the approval request sent with the thumbnail.
func PreviewCaption(p Preview) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Sin título"
	}
	thumb := p.Thumbnail
	if thumb == "" {
		thumb = "-"
	}
	var b strings.Builder
	b.WriteString("🎬 <b>Autorización requerida</b>\n\n")
	fmt.Fprintf(&b, "📝 <b>Título:</b> %s\n", Escape(TruncateRunes(title, 100)))
	fmt.Fprintf(&b, "🆔 <b>Video ID:</b> <code>%s</code>\n", Escape(p.VideoID))
	fmt.Fprintf(&b, "📁 <b>Video:</b> %s\n", Escape(p.VideoFile))
	fmt.Fprintf(&b, "🖼️ <b>Thumbnail:</b> %s\n\n", Escape(thumb))
	fmt.Fprintf(&b, "Responde: <code>yes %s</code>", Escape(p.VideoID))
	return b.String()
}

// UploadSucceeded announces a published video.
func UploadSucceeded(videoID, remoteID string) string {
	return fmt.Sprintf("✅ <b>Video subido</b>\n\n🆔 %s\n📺 %s\n🔗 https://youtube.com/watch?v=%s",
		Escape(videoID), Escape(remoteID), Escape(remoteID))
}

// UploadFailed announces a failed upload.
func UploadFailed(videoID string) string {
	return "❌ Error subiendo: " + Escape(videoID)
}

// ApprovalExpired lists items that were not approved in time.
func ApprovalExpired(videoIDs []string) string {
	var b strings.Builder
	b.WriteString("⏰ Videos no autorizados:\n")
	for _, id := range videoIDs {
		b.WriteString("• ")
		b.WriteString(Escape(id))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NothingToUpload is sent when the publish stage finds no ok items.
func NothingToUpload() string {
	return "ℹ️ No hay videos listos para subir"
}

// CriticalError is sent when a run aborts.
func CriticalError(stage string, err error, at time.Time) string {
	detail := "desconocido"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	heading := "🚨 <b>ERROR CRÍTICO</b>"
	if stage = strings.TrimSpace(stage); stage != "" {
		heading = fmt.Sprintf("🚨 <b>ERROR CRÍTICO - %s</b>", Escape(stage))
	}
	return fmt.Sprintf("%s\n\n💥 Error: %s\n🕒 Tiempo: %s", heading, Escape(detail), at.Format("2006-01-02 15:04:05"))
}

// Relabeled reports how many items became ready for promotion.
func Relabeled(count int) string {
	return fmt.Sprintf("🔄 %d videos actualizados a 'metadata_update'", count)
}

// TestMessage is the body sent by notify-test.
func TestMessage() string {
	return "🧪 Prueba de notificaciones de reelpipe"
}
