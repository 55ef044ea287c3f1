// Package identity resolves bearer credentials into trusted user ids.
//
// Issuing and verifying credentials is somebody else's job; this package only
// looks up what the identity provider already stored.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kotche/ledger/internal/model"
	"github.com/redis/go-redis/v9"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Resolver interface {
	Resolve(ctx context.Context, token string) (model.UserID, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, id model.UserID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func UserFromContext(ctx context.Context) (model.UserID, bool) {
	id, ok := ctx.Value(ctxKey{}).(model.UserID)
	return id, ok && id != ""
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RedisResolver reads sessions written by the identity provider under
// "session:<token>".
type RedisResolver struct {
	client *redis.Client
}

func NewRedisResolver(client *redis.Client) *RedisResolver {
	return &RedisResolver{client: client}
}

func (r *RedisResolver) Resolve(ctx context.Context, token string) (model.UserID, error) {
	val, err := r.client.Get(ctx, "session:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	if val == "" {
		return "", ErrUnauthenticated
	}
	return model.UserID(val), nil
}

// StaticResolver maps fixed tokens to users, for local runs.
type StaticResolver map[string]string

func (s StaticResolver) Resolve(_ context.Context, token string) (model.UserID, error) {
	user, ok := s[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return model.UserID(user), nil
}
