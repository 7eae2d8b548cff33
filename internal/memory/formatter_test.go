package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/hearthbot/memorycore/internal/model"
)

func TestFormatRoundTripsPlainText(t *testing.T) {
	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Content: []model.Part{model.TextPart("hello there")}, Timestamp: 1000},
		{Role: model.RoleAssistant, Content: []model.Part{model.TextPart("hi, how can I help?")}, Timestamp: 2000},
	}

	got := FormatTurns(turns)
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2", len(got))
	}
	for i := range turns {
		if got[i].Text() != turns[i].Text() {
			t.Errorf("turn %d text = %q, want %q", i, got[i].Text(), turns[i].Text())
		}
		if got[i].Role != turns[i].Role {
			t.Errorf("turn %d role = %s, want %s", i, got[i].Role, turns[i].Role)
		}
	}
}

func TestFormatAnnotatesGaps(t *testing.T) {
	base := int64(1_700_000_000_000)
	tests := []struct {
		name string
		gap  time.Duration
		want string
	}{
		{"31 minutes", 31 * time.Minute, "[31 minutes later]"},
		{"2 hours", 2 * time.Hour, "[2 hours later]"},
		{"1 hour", 90 * time.Minute, "[1 hour later]"},
		{"2 days", 48 * time.Hour, "[2 days later]"},
		{"1 day", 25 * time.Hour, "[1 day later]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := []model.ConversationTurn{
				{Role: model.RoleUser, Content: []model.Part{model.TextPart("first")}, Timestamp: base},
				{Role: model.RoleUser, Content: []model.Part{model.TextPart("second")}, Timestamp: base + tt.gap.Milliseconds()},
			}
			got := FormatTurns(turns)
			if len(got[1].Content) != 2 {
				t.Fatalf("expected gap annotation part, got %+v", got[1].Content)
			}
			if got[1].Content[0].Text != tt.want {
				t.Errorf("annotation = %q, want %q", got[1].Content[0].Text, tt.want)
			}
		})
	}
}

func TestFormatNoAnnotationAtThreshold(t *testing.T) {
	base := int64(1_700_000_000_000)
	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Content: []model.Part{model.TextPart("first")}, Timestamp: base},
		{Role: model.RoleUser, Content: []model.Part{model.TextPart("second")}, Timestamp: base + (30 * time.Minute).Milliseconds()},
	}
	got := FormatTurns(turns)
	if len(got[1].Content) != 1 {
		t.Fatalf("exactly 30 minutes must not annotate, got %+v", got[1].Content)
	}
}

func TestFormatAttributesUserTurnsOnce(t *testing.T) {
	turns := []model.ConversationTurn{
		{
			Role: model.RoleUser,
			Content: []model.Part{
				model.TextPart("first part"),
				model.TextPart("second part"),
			},
			Timestamp:   1000,
			Username:    "sam42",
			DisplayName: "Sam",
		},
	}

	got := FormatTurns(turns)
	if got[0].Content[0].Text != "[Sam (@sam42)]: first part" {
		t.Errorf("first part = %q, want attribution prefix", got[0].Content[0].Text)
	}
	if got[0].Content[1].Text != "second part" {
		t.Errorf("second part = %q, attribution must attach once per turn", got[0].Content[1].Text)
	}
}

func TestFormatRedactsAttachments(t *testing.T) {
	turns := []model.ConversationTurn{
		{
			Role: model.RoleUser,
			Content: []model.Part{
				model.FilePart("files/abc", "image/png"),
				{Kind: model.PartInline, MimeType: "audio/ogg"},
			},
			Timestamp: 1000,
		},
	}

	got := FormatTurns(turns)
	if len(got) != 1 || len(got[0].Content) != 2 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	for _, p := range got[0].Content {
		if p.Kind != model.PartText {
			t.Errorf("attachment part not redacted to text: %+v", p)
		}
		if !strings.Contains(p.Text, "content no longer available") {
			t.Errorf("placeholder text missing: %q", p.Text)
		}
	}
	if !strings.Contains(got[0].Content[0].Text, "image/png") {
		t.Errorf("mime type missing from placeholder: %q", got[0].Content[0].Text)
	}
}

func TestFormatDropsEmptyTurns(t *testing.T) {
	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Timestamp: 1000},
		{Role: model.RoleAssistant, Content: []model.Part{model.TextPart("kept")}, Timestamp: 1001},
	}

	got := FormatTurns(turns)
	if len(got) != 1 || got[0].Text() != "kept" {
		t.Fatalf("empty turn should be dropped, got %+v", got)
	}
}
