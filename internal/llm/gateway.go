package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const defaultRetryBackoff = 2 * time.Second

// Gateway presents a uniform call surface over a pool of provider
// credentials. Every operation runs the same rotate-and-retry loop: a
// failed attempt charges the current credential, rotates to the next one,
// waits a fixed backoff, and tries again. Only uniform failure across the
// whole attempt budget surfaces to the caller.
type Gateway struct {
	pool    *Pool
	backoff time.Duration
	logger  *logger.Logger
}

// NewGateway creates a gateway over the credential pool. A zero backoff
// selects the default.
func NewGateway(pool *Pool, backoff time.Duration, log *logger.Logger) *Gateway {
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &Gateway{pool: pool, backoff: backoff, logger: log}
}

// maxAttempts is the retry budget: at least 3, or one attempt per
// credential when the pool is larger.
func (g *Gateway) maxAttempts() int {
	if n := g.pool.Size(); n > 3 {
		return n
	}
	return 3
}

// withRetry runs fn against the current credential, rotating on failure.
func (g *Gateway) withRetry(ctx context.Context, operation string, fn func(Provider) error) error {
	attempts := g.maxAttempts()
	start := time.Now()
	defer func() {
		metrics.GatewayCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		cred := g.pool.pick()

		err := fn(cred.provider)
		cred.record(err)
		metrics.RecordGatewayAttempt(cred.name, operation, err)

		if err == nil {
			return nil
		}
		lastErr = err

		g.logger.Warn("model call failed, rotating credential",
			zap.String("operation", operation),
			zap.String("credential", cred.name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		g.pool.advance()
		metrics.GatewayRotationsTotal.Inc()

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.backoff):
			}
		}
	}

	return fmt.Errorf("all credentials failed after %d attempts: %s", attempts, lastErr.Error())
}

// GenerateContent invokes the provider with rotation on failure.
func (g *Gateway) GenerateContent(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var resp *GenerateResponse
	err := g.withRetry(ctx, "generate", func(p Provider) error {
		r, err := p.GenerateContent(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// EmbedContent returns an embedding vector with rotation on failure.
func (g *Gateway) EmbedContent(ctx context.Context, req *EmbedRequest) ([]float32, error) {
	var vec []float32
	err := g.withRetry(ctx, "embed", func(p Provider) error {
		v, err := p.EmbedContent(ctx, req)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// UploadFile uploads a staged file with rotation on failure.
func (g *Gateway) UploadFile(ctx context.Context, path, mimeType string) (*UploadedFile, error) {
	var file *UploadedFile
	err := g.withRetry(ctx, "upload", func(p Provider) error {
		f, err := p.UploadFile(ctx, path, mimeType)
		if err != nil {
			return err
		}
		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// CredentialStats returns a usage snapshot for every credential.
func (g *Gateway) CredentialStats() []CredentialStats {
	return g.pool.Snapshot()
}

// LogStats emits a structured snapshot of per-credential usage.
func (g *Gateway) LogStats() {
	for _, s := range g.pool.Snapshot() {
		g.logger.Info("credential usage",
			zap.String("credential", s.Name),
			zap.String("provider", s.Provider),
			zap.Int64("requests", s.RequestCount),
			zap.Int64("successes", s.SuccessCount),
			zap.Int64("errors", s.ErrorCount),
			zap.Time("last_used", s.LastUsedAt),
			zap.String("last_error", s.LastError),
		)
	}
}

// StartStatsLogger emits usage snapshots on the given interval until the
// context is cancelled, then once more on the way out.
func (g *Gateway) StartStatsLogger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				g.LogStats()
				return
			case <-ticker.C:
				g.LogStats()
			}
		}
	}()
}
