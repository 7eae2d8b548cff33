package memory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/internal/staging"
	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const (
	defaultMaxFullMessages      = 10
	defaultCompressionThreshold = 60
	defaultInlineTranscriptMax  = 1000
	defaultRetrievalTopK        = 3

	// smallOverflowTail is the verbatim slice of old turns kept when the
	// overflow is too small to justify a compression call.
	smallOverflowTail = 10
)

// Optimizer assembles the ordered turn sequence to send to the model for
// one request: recent raw turns, a compressed block of older turns, and
// semantically relevant turns retrieved from the memory index.
type Optimizer struct {
	store      Store
	compressor *Compressor
	retriever  *Retriever
	indexer    *Indexer
	uploader   Uploader
	area       *staging.Area
	logger     *logger.Logger

	maxFull   int
	threshold int
	inlineMax int
	topK      int
}

// OptimizerParams tunes the assembly thresholds. Zero values select the
// defaults.
type OptimizerParams struct {
	MaxFullMessages      int
	CompressionThreshold int
	InlineTranscriptMax  int
	RetrievalTopK        int
}

func (p *OptimizerParams) applyDefaults() {
	if p.MaxFullMessages <= 0 {
		p.MaxFullMessages = defaultMaxFullMessages
	}
	if p.CompressionThreshold <= 0 {
		p.CompressionThreshold = defaultCompressionThreshold
	}
	if p.InlineTranscriptMax <= 0 {
		p.InlineTranscriptMax = defaultInlineTranscriptMax
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = defaultRetrievalTopK
	}
}

// NewOptimizer creates an optimizer over the given collaborators. The
// uploader and staging area may be nil, in which case long transcripts
// stay inline.
func NewOptimizer(
	store Store,
	compressor *Compressor,
	retriever *Retriever,
	indexer *Indexer,
	uploader Uploader,
	area *staging.Area,
	params OptimizerParams,
	log *logger.Logger,
) *Optimizer {
	params.applyDefaults()
	return &Optimizer{
		store:      store,
		compressor: compressor,
		retriever:  retriever,
		indexer:    indexer,
		uploader:   uploader,
		area:       area,
		logger:     log,
		maxFull:    params.MaxFullMessages,
		threshold:  params.CompressionThreshold,
		inlineMax:  params.InlineTranscriptMax,
		topK:       params.RetrievalTopK,
	}
}

// Assemble builds the turn sequence for one request. The caller appends
// the live user turn afterwards. Every stage degrades gracefully: only a
// failed history load yields an empty result.
func (o *Optimizer) Assemble(ctx context.Context, historyID, queryText, modelName string) []model.ConversationTurn {
	ctx, span := otel.Tracer("memorycore").Start(ctx, "memory.Assemble")
	defer span.End()
	span.SetAttributes(attribute.String("history_id", historyID))

	start := time.Now()

	container, err := o.store.GetChatHistory(ctx, historyID)
	if err != nil {
		o.logger.Error("history load failed",
			zap.String("history_id", historyID),
			zap.Error(err),
		)
		metrics.AssembleDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil
	}

	all := container.Flatten()
	if len(all) == 0 {
		metrics.AssembleDuration.WithLabelValues("empty").Observe(time.Since(start).Seconds())
		return nil
	}

	// Fire-and-forget: index growth is checked off the request path.
	o.indexer.MaybeIndex(historyID, all)

	if len(all) <= o.maxFull {
		metrics.AssembleDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())
		return FormatTurns(all)
	}

	old := all[:len(all)-o.maxFull]
	recent := all[len(all)-o.maxFull:]

	relevant := o.retriever.Retrieve(ctx, historyID, queryText, o.topK)

	var oldBlock []model.ConversationTurn
	if len(old) > o.threshold {
		oldBlock = o.compressor.Compress(ctx, old, modelName)
	} else if len(old) > smallOverflowTail {
		oldBlock = old[len(old)-smallOverflowTail:]
	} else {
		oldBlock = old
	}

	out := make([]model.ConversationTurn, 0, len(recent)+2)

	if transcript := renderTranscript(oldBlock); transcript != "" {
		desc := fmt.Sprintf("[Summarized %d older messages]", len(old))
		out = append(out, o.contextBlock(ctx, desc, transcript))
	}

	if transcript := renderTranscript(relevant); transcript != "" {
		desc := fmt.Sprintf("[%d relevant messages from memory]", len(relevant))
		out = append(out, o.contextBlock(ctx, desc, transcript))
	}

	out = append(out, FormatTurns(recent)...)

	metrics.AssembleDuration.WithLabelValues("split").Observe(time.Since(start).Seconds())
	return out
}

// contextBlock wraps a rendered transcript as one synthetic user turn.
// Short transcripts ride inline; long ones are staged and uploaded, with
// the turn carrying the file reference. Upload failure degrades to inline
// text.
func (o *Optimizer) contextBlock(ctx context.Context, description, transcript string) model.ConversationTurn {
	turn := model.ConversationTurn{
		Role:      model.RoleUser,
		Timestamp: time.Now().UnixMilli(),
	}

	if len(transcript) <= o.inlineMax || o.uploader == nil || o.area == nil {
		turn.Content = []model.Part{model.TextPart(description + "\n" + transcript)}
		return turn
	}

	path, cleanup, err := o.area.Stage("context", []byte(transcript))
	if err != nil {
		o.logger.Warn("staging context transcript failed, sending inline", zap.Error(err))
		turn.Content = []model.Part{model.TextPart(description + "\n" + transcript)}
		return turn
	}
	defer cleanup()

	uploaded, err := o.uploader.UploadFile(ctx, path, "text/plain")
	if err != nil {
		o.logger.Warn("context transcript upload failed, sending inline", zap.Error(err))
		turn.Content = []model.Part{model.TextPart(description + "\n" + transcript)}
		return turn
	}

	turn.Content = []model.Part{
		model.TextPart(description),
		model.FilePart(uploaded.URI, uploaded.MimeType),
	}
	return turn
}
