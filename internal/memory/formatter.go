package memory

import (
	"fmt"
	"time"

	"github.com/hearthbot/memorycore/internal/model"
)

// gapThreshold is the silence length after which an elapsed-time
// annotation is prepended to a turn.
const gapThreshold = 30 * time.Minute

// FormatTurns converts raw stored turns into model-ready turns: reply-role
// mapping, stale attachment redaction, elapsed-time annotations, and
// speaker attribution. Turns left with no parts are dropped.
func FormatTurns(turns []model.ConversationTurn) []model.ConversationTurn {
	out := make([]model.ConversationTurn, 0, len(turns))

	var prevTimestamp int64
	for i, t := range turns {
		formatted := model.ConversationTurn{
			Role:      mapRole(t.Role),
			Timestamp: t.Timestamp,
		}

		if i > 0 {
			if gap := time.Duration(t.Timestamp-prevTimestamp) * time.Millisecond; gap > gapThreshold {
				formatted.Content = append(formatted.Content,
					model.TextPart(fmt.Sprintf("[%s later]", elapsedLabel(gap))))
			}
		}
		prevTimestamp = t.Timestamp

		attributed := false
		for _, p := range t.Content {
			switch p.Kind {
			case model.PartText:
				text := p.Text
				if !attributed && t.Role == model.RoleUser && t.Username != "" && t.DisplayName != "" {
					text = fmt.Sprintf("[%s (@%s)]: %s", t.DisplayName, t.Username, text)
					attributed = true
				}
				formatted.Content = append(formatted.Content, model.TextPart(text))
			case model.PartFile:
				// Stale uploads are never replayed to the model.
				formatted.Content = append(formatted.Content,
					model.TextPart(fmt.Sprintf("Attachment: previous file (%s) - content no longer available", p.MimeType)))
			case model.PartInline:
				formatted.Content = append(formatted.Content,
					model.TextPart(fmt.Sprintf("Attachment: inline data (%s) - content no longer available", p.MimeType)))
			}
		}

		if len(formatted.Content) == 0 {
			continue
		}
		out = append(out, formatted)
	}

	return out
}

// mapRole maps the stored assistant role to the model's reply-role token
// and preserves user.
func mapRole(r model.Role) model.Role {
	if r == model.RoleAssistant {
		return model.RoleAssistant
	}
	return model.RoleUser
}

// elapsedLabel renders a duration in its coarsest applicable unit, never
// combining units.
func elapsedLabel(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return plural(int(d.Hours())/24, "day")
	case d >= time.Hour:
		return plural(int(d.Hours()), "hour")
	case d >= time.Minute:
		return plural(int(d.Minutes()), "minute")
	default:
		return plural(int(d.Seconds()), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
