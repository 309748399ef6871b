// Package session persists per-call dialogue sessions in Redis with an idle
// TTL. A missing or expired entry is indistinguishable from a fresh call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rochsolutions/ai-receptionist/internal/dialogue"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

const keyPrefix = "call:"

// ErrNotFound reports that no session is stored for a call.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL is the idle expiry applied when none is configured.
const DefaultTTL = 30 * time.Minute

// Store manages dialogue sessions in Redis, keyed by the telephony call ID.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStore creates a session store backed by Redis.
func NewStore(rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{rdb: rdb, ttl: ttl, logger: logger}
}

func sessionKey(callID string) string {
	return keyPrefix + callID
}

// Get loads the session for a call. Missing, expired, or unreadable entries
// all yield a fresh session; only transport failures surface as errors.
func (s *Store) Get(ctx context.Context, callID string) (*dialogue.Session, error) {
	if callID == "" {
		return dialogue.NewSession(), nil
	}
	data, err := s.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return dialogue.NewSession(), nil
		}
		return nil, fmt.Errorf("session: get %s: %w", callID, err)
	}
	var sess dialogue.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("discarding unreadable session", "call_id", callID, "error", err)
		return dialogue.NewSession(), nil
	}
	return &sess, nil
}

// Put saves the session and refreshes its idle TTL.
func (s *Store) Put(ctx context.Context, callID string, sess *dialogue.Session) error {
	if callID == "" || sess == nil {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", callID, err)
	}
	if err := s.rdb.Set(ctx, sessionKey(callID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: put %s: %w", callID, err)
	}
	return nil
}

// Dump returns the raw stored JSON for a call, or ErrNotFound when nothing
// is stored. Used by the debug endpoints, which want to see what is actually
// in Redis rather than a freshly minted session.
func (s *Store) Dump(ctx context.Context, callID string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: dump %s: %w", callID, err)
	}
	return data, nil
}

// Delete removes a session, used by the debug endpoints.
func (s *Store) Delete(ctx context.Context, callID string) error {
	if err := s.rdb.Del(ctx, sessionKey(callID)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", callID, err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
