// Package model defines data structures for the conversational memory engine.
package model

import (
	"sort"
	"strings"
	"time"
)

// Role represents the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind discriminates the content variants inside a turn.
type PartKind string

const (
	PartText   PartKind = "text"
	PartFile   PartKind = "file"
	PartInline PartKind = "inline"
)

// Part is one unit of turn content: plain text, a reference to an
// uploaded file, or an inline attachment.
type Part struct {
	Kind     PartKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	FileURI  string   `json:"file_uri,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// FilePart builds a file-reference part.
func FilePart(uri, mimeType string) Part {
	return Part{Kind: PartFile, FileURI: uri, MimeType: mimeType}
}

// ConversationTurn is one message exchanged in a conversation. Turns are
// append-only; content is never mutated by this engine.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content []Part `json:"content"`

	// Timestamp is milliseconds since epoch, non-decreasing within a thread.
	Timestamp int64 `json:"timestamp"`

	// Attribution, present only on user turns in multi-user threads.
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// NewTextTurn builds a single-text-part turn stamped with the current time.
func NewTextTurn(role Role, text string) ConversationTurn {
	return ConversationTurn{
		Role:      role,
		Content:   []Part{TextPart(text)},
		Timestamp: time.Now().UnixMilli(),
	}
}

// Text concatenates the text parts of the turn, skipping attachments.
func (t ConversationTurn) Text() string {
	var b strings.Builder
	for _, p := range t.Content {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// HistoryContainer maps a sub-thread identifier (e.g. a user ID within a
// guild-wide thread) to its ordered turns. Owned by the persistence layer;
// the engine treats a loaded container as an immutable snapshot.
type HistoryContainer map[string][]ConversationTurn

// Flatten concatenates all sub-threads into one list. Sub-threads are
// appended in sorted key order, not timestamp-merged; callers that need
// global chronology apply SortTurns afterwards.
func (h HistoryContainer) Flatten() []ConversationTurn {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []ConversationTurn
	for _, k := range keys {
		out = append(out, h[k]...)
	}
	return out
}

// TurnCount returns the total number of turns across all sub-threads.
func (h HistoryContainer) TurnCount() int {
	n := 0
	for _, turns := range h {
		n += len(turns)
	}
	return n
}

// SortTurns orders turns chronologically by timestamp. The sort is stable
// so turns sharing a timestamp keep their append order.
func SortTurns(turns []ConversationTurn) {
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp < turns[j].Timestamp
	})
}
