package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/pkg/logger"
)

const (
	// StreamName is the stream holding chat history and the memory index.
	StreamName = "MEMORYCORE"

	chatSubjectPrefix  = "chat"
	indexSubjectPrefix = "memidx"

	fetchBatchSize = 500
	fetchMaxWait   = 2 * time.Second
)

// Store implements the persistence collaborator on JetStream. Chat turns
// live under chat.<historyID>.<threadID>, memory entries under
// memidx.<historyID>. Stream order doubles as append order.
type Store struct {
	client *Client
	logger *logger.Logger
}

// NewStore creates a JetStream-backed store.
func NewStore(client *Client, log *logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

// EnsureStream ensures the backing stream exists.
func (s *Store) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name: StreamName,
		Subjects: []string{
			fmt.Sprintf("%s.>", chatSubjectPrefix),
			fmt.Sprintf("%s.>", indexSubjectPrefix),
		},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Conversation history and memory index records",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

func chatSubject(historyID, threadID string) string {
	return fmt.Sprintf("%s.%s.%s", chatSubjectPrefix, historyID, threadID)
}

func indexSubject(historyID string) string {
	return fmt.Sprintf("%s.%s", indexSubjectPrefix, historyID)
}

// chatRecord is the wire envelope for one stored turn.
type chatRecord struct {
	ThreadID string                 `json:"thread_id"`
	Turn     model.ConversationTurn `json:"turn"`
}

// AppendTurn publishes one turn to a history sub-thread. The single
// JetStream writer per subject serializes appends, so readers never
// observe a torn history.
func (s *Store) AppendTurn(ctx context.Context, historyID, threadID string, turn model.ConversationTurn) error {
	data, err := json.Marshal(chatRecord{ThreadID: threadID, Turn: turn})
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	if _, err := s.client.JetStream().Publish(ctx, chatSubject(historyID, threadID), data); err != nil {
		return fmt.Errorf("failed to publish turn: %w", err)
	}
	return nil
}

// GetChatHistory loads all turns for a history, grouped by sub-thread.
// A history with no turns returns a nil container and no error.
func (s *Store) GetChatHistory(ctx context.Context, historyID string) (model.HistoryContainer, error) {
	msgs, err := s.fetchAll(ctx, fmt.Sprintf("%s.%s.>", chatSubjectPrefix, historyID))
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	container := make(model.HistoryContainer)
	for _, msg := range msgs {
		var rec chatRecord
		if err := json.Unmarshal(msg.Data(), &rec); err != nil {
			s.logger.Warn("skipping undecodable turn",
				zap.String("history_id", historyID),
				zap.Error(err),
			)
			continue
		}
		container[rec.ThreadID] = append(container[rec.ThreadID], rec.Turn)
	}
	return container, nil
}

// SaveMemoryEntry persists one index record.
func (s *Store) SaveMemoryEntry(ctx context.Context, historyID string, entry *model.MemoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entry: %w", err)
	}

	if _, err := s.client.JetStream().Publish(ctx, indexSubject(historyID), data); err != nil {
		return fmt.Errorf("failed to publish memory entry: %w", err)
	}
	return nil
}

// GetMemoryEntries returns up to limit entries for a history, newest-first.
func (s *Store) GetMemoryEntries(ctx context.Context, historyID string, limit int) ([]model.MemoryEntry, error) {
	msgs, err := s.fetchAll(ctx, indexSubject(historyID))
	if err != nil {
		return nil, err
	}

	entries := make([]model.MemoryEntry, 0, len(msgs))
	for _, msg := range msgs {
		var entry model.MemoryEntry
		if err := json.Unmarshal(msg.Data(), &entry); err != nil {
			s.logger.Warn("skipping undecodable memory entry",
				zap.String("history_id", historyID),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// DeleteOldMemoryEntries purges index records created before the cutoff
// and returns how many were removed. Index subjects are append-ordered by
// creation time, so a prefix purge up to the first young record is exact.
func (s *Store) DeleteOldMemoryEntries(ctx context.Context, cutoff time.Time) (int, error) {
	msgs, err := s.fetchAll(ctx, fmt.Sprintf("%s.>", indexSubjectPrefix))
	if err != nil {
		return 0, err
	}

	cutoffMillis := cutoff.UnixMilli()
	deleted := 0
	var purgeBefore uint64

	for _, msg := range msgs {
		var entry model.MemoryEntry
		if err := json.Unmarshal(msg.Data(), &entry); err != nil {
			continue
		}
		if entry.Timestamp >= cutoffMillis {
			break
		}
		meta, err := msg.Metadata()
		if err != nil {
			continue
		}
		purgeBefore = meta.Sequence.Stream + 1
		deleted++
	}

	if deleted == 0 {
		return 0, nil
	}

	stream, err := s.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Purge(ctx,
		jetstream.WithPurgeSubject(fmt.Sprintf("%s.>", indexSubjectPrefix)),
		jetstream.WithPurgeSequence(purgeBefore),
	); err != nil {
		return 0, fmt.Errorf("failed to purge old entries: %w", err)
	}

	return deleted, nil
}

// fetchAll drains every message currently stored under the filter subject
// using an ephemeral ordered read, in stream order.
func (s *Store) fetchAll(ctx context.Context, filterSubject string) ([]jetstream.Msg, error) {
	js := s.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	info, err := consumer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read consumer info: %w", err)
	}

	pending := int(info.NumPending)
	out := make([]jetstream.Msg, 0, pending)

	for len(out) < pending {
		batch, err := consumer.Fetch(fetchBatchSize, jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}

		received := 0
		for msg := range batch.Messages() {
			out = append(out, msg)
			received++
		}
		if batch.Error() != nil && !errors.Is(batch.Error(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("batch error: %w", batch.Error())
		}
		if received == 0 {
			break
		}
	}

	return out, nil
}
