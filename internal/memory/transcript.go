package memory

import (
	"context"
	"strings"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
)

// renderTranscript flattens turns into "Role: text" lines. Attachment
// parts contribute nothing; turns with no extractable text are skipped.
func renderTranscript(turns []model.ConversationTurn) string {
	var b strings.Builder
	for _, t := range turns {
		text := t.Text()
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(roleLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(text)
	}
	return b.String()
}

func roleLabel(r model.Role) string {
	if r == model.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// cachingEmbedder fronts the gateway's embedding call with the FIFO cache.
type cachingEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
	model string
}

// embed returns the vector for text, consulting the cache first. Empty
// input is not an error: it yields a nil vector, which callers treat as
// "no semantic signal available".
func (e *cachingEmbedder) embed(ctx context.Context, text string, task llm.TaskType) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if vec, ok := e.cache.Get(text, task); ok {
		return vec, nil
	}

	vec, err := e.inner.EmbedContent(ctx, &llm.EmbedRequest{
		Model:    e.model,
		Text:     text,
		TaskType: task,
	})
	if err != nil {
		return nil, err
	}

	e.cache.Put(text, task, vec)
	return vec, nil
}
