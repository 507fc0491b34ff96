package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AnswerFlushWorker consumes the persist queue and writes WebSocket-autosaved
// answers to PostgreSQL through the same guarded upsert the HTTP path uses, so
// a submitted session never gains late answers.
type AnswerFlushWorker struct {
	sessions *repository.ExamSessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewAnswerFlushWorker creates a new AnswerFlushWorker.
func NewAnswerFlushWorker(sessions *repository.ExamSessionRepository, rdb *redis.Client, log zerolog.Logger) *AnswerFlushWorker {
	return &AnswerFlushWorker{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "answer_flush_worker").Logger(),
	}
}

type answerPayload struct {
	SessionID string `json:"session_id"`
	QID       string `json:"q_id"`
	Answer    string `json:"answer"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AnswerFlushWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AnswerFlushWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload answerPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAnswer(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AnswerFlushWorker) persistAnswer(ctx context.Context, p *answerPayload) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}
	questionID, err := uuid.Parse(p.QID)
	if err != nil {
		return err
	}

	// The upsert is conditional on the session still being IN_PROGRESS.
	// A false return means the session was submitted while the item sat in
	// the queue; the answer is dropped on purpose.
	ok, err := w.sessions.UpsertAnswer(ctx, sessionID, questionID, p.Answer)
	if err != nil {
		return err
	}
	if !ok {
		w.log.Debug().
			Str("session_id", p.SessionID).
			Str("question_id", p.QID).
			Msg("Dropped answer for finalized session")
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AnswerFlushWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		var payload answerPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAnswer(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
