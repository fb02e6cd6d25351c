package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ExamBufferRepository holds raw exam answers in redis until batch grading.
// One hash per session, card id as field, raw answer as value. The hash is
// dropped on submit or early finish, and expires on its own if abandoned.
type ExamBufferRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewExamBufferRepository(rdb *redis.Client, ttl time.Duration) *ExamBufferRepository {
	return &ExamBufferRepository{Redis: rdb, TTL: ttl}
}

func bufferKey(sessionID string) string {
	return "exam_buffer:" + sessionID
}

func (r *ExamBufferRepository) Put(ctx context.Context, sessionID string, cardID uint, rawAnswer string) error {
	key := bufferKey(sessionID)
	pipe := r.Redis.TxPipeline()
	pipe.HSet(ctx, key, fmt.Sprintf("%d", cardID), rawAnswer)
	pipe.Expire(ctx, key, r.TTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ExamBufferRepository) Has(ctx context.Context, sessionID string, cardID uint) (bool, error) {
	return r.Redis.HExists(ctx, bufferKey(sessionID), fmt.Sprintf("%d", cardID)).Result()
}

// All returns every buffered answer for the session keyed by card id.
func (r *ExamBufferRepository) All(ctx context.Context, sessionID string) (map[uint]string, error) {
	raw, err := r.Redis.HGetAll(ctx, bufferKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	answers := make(map[uint]string, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			continue
		}
		answers[uint(id)] = value
	}
	return answers, nil
}

func (r *ExamBufferRepository) Clear(ctx context.Context, sessionID string) error {
	return r.Redis.Del(ctx, bufferKey(sessionID)).Err()
}
