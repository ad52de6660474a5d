package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
)

type Role string

const (
	RoleArtist Role = "artist"
	RoleJudge  Role = "judge"
	RoleAdmin  Role = "admin"
)

// rolesHeader is only honoured when auth is disabled.
const rolesHeader = "X-User-Roles"

// Actor is the caller behind a request. Identity and roles are issued
// elsewhere; the engine only reads them.
type Actor struct {
	ID    string
	Roles []Role
}

func (a *Actor) HasRole(role Role) bool {
	return slices.Contains(a.Roles, role) || slices.Contains(a.Roles, RoleAdmin)
}

// Require fails with not_authorized unless the actor holds one of roles.
func (a *Actor) Require(roles ...Role) error {
	for _, r := range roles {
		if a.HasRole(r) {
			return nil
		}
	}
	return apperr.Newf(apperr.KindNotAuthorized, "requires role %v", roles)
}

type Auth struct {
	enabled      bool
	redis        *redis.Client
	keyTemplate  string
	tokenHeader  string
	userIDHeader string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, userIDHeader: config.Auth.UserIDHeader}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Auth{
		enabled:      true,
		redis:        client,
		keyTemplate:  config.Auth.TokenKeyTemplate,
		tokenHeader:  config.Auth.TokenHeader,
		userIDHeader: config.Auth.UserIDHeader,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Resolve identifies the caller. With auth enabled the bearer token must
// match the token stored in the user's hash, and roles come from that hash.
func (a *Auth) Resolve(r *http.Request) (*Actor, error) {
	userID := r.Header.Get(a.userIDHeader)
	if userID == "" {
		return nil, apperr.New(apperr.KindNotAuthorized, "missing user id")
	}

	if !a.enabled {
		return &Actor{ID: userID, Roles: parseRoles(r.Header.Get(rolesHeader))}, nil
	}

	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, apperr.New(apperr.KindNotAuthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	roles, err := a.lookup(r.Context(), userID, token)
	if err != nil {
		return nil, err
	}
	return &Actor{ID: userID, Roles: roles}, nil
}

func (a *Auth) lookup(ctx context.Context, userID, token string) ([]Role, error) {
	key := strings.NewReplacer("{user}", userID).Replace(a.keyTemplate)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Debug.Printf("Redis error: %v", err)
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		logger.Debug.Printf("Token not found for key: %s", key)
		return nil, apperr.New(apperr.KindNotAuthorized, "token not found")
	}

	if fields["token"] != token {
		logger.Debug.Printf("Token mismatch for user %s at %s", userID, key)
		return nil, apperr.New(apperr.KindNotAuthorized, "invalid token")
	}

	return parseRoles(fields["roles"]), nil
}

func parseRoles(raw string) []Role {
	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			roles = append(roles, Role(part))
		}
	}
	return roles
}
