// Package gcal integrates Google Calendar: the OAuth handshake, the stored
// credential, and the calendar operations the dialogue layer consumes.
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const (
	tokenKey      = "google:tokens"
	oauthStateKey = "google:oauth:state"

	// tokenTTL keeps the stored credential for a year; the refresh token
	// inside it outlives the access token.
	tokenTTL = 365 * 24 * time.Hour
	stateTTL = 10 * time.Minute
)

// ErrNoCredential is returned when no Google credential has been stored yet,
// i.e. the OAuth handshake has not been completed.
var ErrNoCredential = errors.New("gcal: no stored credential")

// TokenStore keeps the Google OAuth token and the in-flight handshake state
// nonce in Redis.
type TokenStore struct {
	rdb *redis.Client
}

// NewTokenStore creates a token store backed by Redis.
func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

// Get returns the stored credential, or ErrNoCredential when absent.
func (s *TokenStore) Get(ctx context.Context) (*oauth2.Token, error) {
	data, err := s.rdb.Get(ctx, tokenKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("gcal: token get: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("gcal: token unmarshal: %w", err)
	}
	return &tok, nil
}

// Put stores the credential.
func (s *TokenStore) Put(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("gcal: token marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, tokenKey, data, tokenTTL).Err(); err != nil {
		return fmt.Errorf("gcal: token put: %w", err)
	}
	return nil
}

// PutState stores the OAuth state nonce for later validation.
func (s *TokenStore) PutState(ctx context.Context, state string) error {
	if err := s.rdb.Set(ctx, oauthStateKey, state, stateTTL).Err(); err != nil {
		return fmt.Errorf("gcal: state put: %w", err)
	}
	return nil
}

// CheckState compares the presented state against the stored nonce and
// consumes it.
func (s *TokenStore) CheckState(ctx context.Context, state string) (bool, error) {
	saved, err := s.rdb.Get(ctx, oauthStateKey).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("gcal: state get: %w", err)
	}
	if state == "" || saved != state {
		return false, nil
	}
	_ = s.rdb.Del(ctx, oauthStateKey).Err()
	return true, nil
}
