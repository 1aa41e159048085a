package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/model"
)

// Feed operations, mirroring the lessons-table mutation kinds.
const (
	FeedOpInsert     = "insert"
	FeedOpUpdate     = "update"
	FeedOpDelete     = "delete"
	FeedOpBulkInsert = "bulk_insert"
	FeedOpBulkDelete = "bulk_delete"
)

// FeedEvent is one lessons-table change notification. It carries just
// enough for a client to decide to refetch its current view; the core
// holds no cache and clients are expected to re-query, not diff.
type FeedEvent struct {
	Op        string `json:"op"`
	LessonID  string `json:"lesson_id,omitempty"`
	StudentID int    `json:"student_id"`
	Date      string `json:"date,omitempty"`
	Count     int    `json:"count,omitempty"` // bulk ops only
	At        string `json:"at"`
}

// FeedService publishes lesson change notifications on Redis Pub/Sub.
// Publishing is fire-and-forget: the feed is a refresh hint, so a lost
// event costs a stale view until the next manual refresh, never data.
type FeedService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewFeedService creates a new FeedService.
func NewFeedService(rdb *redis.Client, log zerolog.Logger) *FeedService {
	return &FeedService{
		rdb: rdb,
		log: log.With().Str("component", "feed_service").Logger(),
	}
}

// Lesson publishes a single-lesson mutation event.
func (s *FeedService) Lesson(ctx context.Context, op string, l *model.Lesson) {
	s.publish(ctx, FeedEvent{
		Op:        op,
		LessonID:  l.ID.String(),
		StudentID: l.StudentID,
		Date:      l.Date,
	})
}

// Bulk publishes a bulk mutation event for one student's lessons.
func (s *FeedService) Bulk(ctx context.Context, op string, studentID, count int) {
	s.publish(ctx, FeedEvent{Op: op, StudentID: studentID, Count: count})
}

func (s *FeedService) publish(ctx context.Context, ev FeedEvent) {
	ev.At = time.Now().Format(time.RFC3339)

	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal feed event")
		return
	}

	if err := s.rdb.Publish(ctx, config.CacheKey.LessonFeedChannel(), payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("op", ev.Op).Msg("Publish feed event failed")
	}
}
