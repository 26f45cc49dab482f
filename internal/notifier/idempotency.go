package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirbha/settlement-gateway/pkg/logger"
	"github.com/samirbha/settlement-gateway/pkg/redis"
)

var (
	ErrAlreadyDelivered   = errors.New("event already delivered")
	ErrLockAcquireFailed  = errors.New("failed to acquire delivery lock")
	ErrMaxRetriesExceeded = errors.New("maximum delivery retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	DeliveredTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	DeliveredKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		DeliveredTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "webhook:retry:",
		LockKeyPrefix:      "webhook:lock:",
		DeliveredKeyPrefix: "webhook:delivered:",
	}
}

// IdempotencyService guarantees each order event results in at most one
// successful webhook delivery, even with multiple consumer instances
// pulling from the same stream.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DeliveryContext struct {
	EventID      string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireDeliveryLock(ctx context.Context, eventID string) (*DeliveryContext, error) {
	// Long-term delivered marker first.
	deliveredKey := s.config.DeliveredKeyPrefix + eventID
	exists, err := s.redis.Exist(deliveredKey)
	if err != nil {
		logger.Warn("Failed to check delivered status", "event_id", eventID, "error", err)
		// Continue even if the check fails; a duplicate webhook beats a stuck stream.
	} else if exists > 0 {
		return nil, ErrAlreadyDelivered
	}

	retryKey := s.config.RetryKeyPrefix + eventID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("Max delivery retries exceeded", "event_id", eventID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: event_id=%s, retries=%d", ErrMaxRetriesExceeded, eventID, retryCount)
	}

	// Short-term lock so two consumers never deliver the same event at once.
	lockKey := s.config.LockKeyPrefix + eventID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire delivery lock", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Delivery lock held by another consumer", "event_id", eventID)
		return nil, ErrLockAcquireFailed
	}

	return &DeliveryContext{
		EventID:      eventID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkDelivered(ctx context.Context, dc *DeliveryContext) error {
	eventID := dc.EventID

	deliveredKey := s.config.DeliveredKeyPrefix + eventID
	err := s.redis.Set(deliveredKey, []byte("1"), s.config.DeliveredTTL)
	if err != nil {
		logger.Error("Failed to mark event as delivered", "event_id", eventID, "error", err)
		return fmt.Errorf("failed to mark as delivered: %w", err)
	}

	s.cleanup(ctx, dc)

	logger.Info("Webhook delivered",
		"event_id", eventID,
		"retry_count", dc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DeliveryContext, reason error) error {
	eventID := dc.EventID

	retryKey := s.config.RetryKeyPrefix + eventID
	newRetryCount := dc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// The counter outlives individual attempts so retries across
	// consumers stay bounded.
	err := s.redis.Set(retryKey, retryValue, s.config.DeliveredTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "event_id", eventID, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + eventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove delivery lock", "event_id", eventID, "error", err)
	}

	logger.Warn("Webhook delivery failed, will retry",
		"event_id", eventID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DeliveryContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + dc.EventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release delivery lock", "event_id", dc.EventID, "error", err)
		return err
	}

	dc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, dc *DeliveryContext) {
	eventID := dc.EventID

	lockKey := s.config.LockKeyPrefix + eventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup delivery lock", "event_id", eventID, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + eventID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "event_id", eventID, "error", err)
	}

	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, eventID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + eventID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsDelivered(ctx context.Context, eventID string) (bool, error) {
	deliveredKey := s.config.DeliveredKeyPrefix + eventID
	exists, err := s.redis.Exist(deliveredKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
