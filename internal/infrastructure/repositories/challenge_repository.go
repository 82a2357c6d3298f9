package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/chainguard/domain"
)

// ChallengeRepository implements domain.ChallengeRepository using Redis.
// Codes expire with the key, so an elapsed window reads as not found.
type ChallengeRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(client *redis.Client, ttl time.Duration) *ChallengeRepository {
	if ttl <= 0 {
		ttl = domain.OTPTTL
	}
	return &ChallengeRepository{
		client: client,
		prefix: "otp:",
		ttl:    ttl,
	}
}

// Save implements domain.ChallengeRepository
func (r *ChallengeRepository) Save(ctx context.Context, email, code string) error {
	if err := r.client.Set(ctx, r.key(email), code, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Find implements domain.ChallengeRepository
func (r *ChallengeRepository) Find(ctx context.Context, email string) (string, error) {
	code, err := r.client.Get(ctx, r.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrOTPNotFound
		}
		return "", err
	}
	return code, nil
}

// Delete implements domain.ChallengeRepository
func (r *ChallengeRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

// key normalizes email so case variants share one code
func (r *ChallengeRepository) key(email string) string {
	return r.prefix + strings.ToLower(strings.TrimSpace(email))
}

var _ domain.ChallengeRepository = (*ChallengeRepository)(nil)
