package memory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const (
	// minCompressTurns is the size below which compression is not worth
	// a model round-trip; such input is returned unchanged.
	minCompressTurns = 5

	// fallbackTailTurns is how many raw turns survive when the
	// summarization call fails.
	fallbackTailTurns = 3
)

const summaryInstruction = "Summarize the following conversation concisely and factually. " +
	"Preserve names, decisions, facts, and any commitments made. " +
	"Reply with the summary only.\n\n"

// Compressor collapses an aging batch of turns into a single summarized
// turn via one model call.
type Compressor struct {
	generator Generator
	logger    *logger.Logger
}

// NewCompressor creates a compressor backed by the given generator.
func NewCompressor(generator Generator, log *logger.Logger) *Compressor {
	return &Compressor{generator: generator, logger: log}
}

// Compress summarizes turns into one synthetic user turn. Inputs of
// minCompressTurns or fewer are returned unchanged. On model failure it
// degrades to the last fallbackTailTurns raw turns; it never fails.
func (c *Compressor) Compress(ctx context.Context, turns []model.ConversationTurn, modelName string) []model.ConversationTurn {
	if len(turns) <= minCompressTurns {
		return turns
	}

	transcript := renderTranscript(turns)

	resp, err := c.generator.GenerateContent(ctx, &llm.GenerateRequest{
		Model: modelName,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: summaryInstruction + transcript},
		},
	})
	if err != nil {
		metrics.CompressionsTotal.WithLabelValues("fallback").Inc()
		c.logger.Warn("history compression failed, keeping raw tail",
			zap.Int("turns", len(turns)),
			zap.Error(err),
		)
		return turns[len(turns)-fallbackTailTurns:]
	}

	metrics.CompressionsTotal.WithLabelValues("success").Inc()

	summary := model.ConversationTurn{
		Role:      model.RoleUser,
		Content:   []model.Part{model.TextPart(fmt.Sprintf("[Previous conversation summary: %s]", resp.Text))},
		Timestamp: time.Now().UnixMilli(),
	}
	return []model.ConversationTurn{summary}
}
