package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/equipnfc/equipment-manager/internal/config"
	"github.com/equipnfc/equipment-manager/internal/repository"
	"github.com/equipnfc/equipment-manager/internal/utils"
)

// resetKeyPrefix namespaces reset tokens in Redis.
const resetKeyPrefix = "pwreset:"

// ResetRequest is the state stored per outstanding reset token.
type ResetRequest struct {
	UserID    uint64    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetStore persists outstanding reset tokens with a TTL. The Redis
// implementation keeps tokens across restarts and across server
// instances; entries disappear on their own when the TTL lapses, and
// Consume removes the entry so a token can be used exactly once.
type ResetStore interface {
	Put(ctx context.Context, token string, req ResetRequest, ttl time.Duration) error
	Consume(ctx context.Context, token string) (ResetRequest, bool, error)
}

// RedisResetStore implements ResetStore on a Redis client.
type RedisResetStore struct{ RDB *redis.Client }

func NewRedisResetStore(rdb *redis.Client) *RedisResetStore { return &RedisResetStore{RDB: rdb} }

func (s *RedisResetStore) Put(ctx context.Context, token string, req ResetRequest, ttl time.Duration) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, resetKeyPrefix+token, b, ttl).Err()
}

func (s *RedisResetStore) Consume(ctx context.Context, token string) (ResetRequest, bool, error) {
	b, err := s.RDB.GetDel(ctx, resetKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return ResetRequest{}, false, nil
	}
	if err != nil {
		return ResetRequest{}, false, err
	}
	var req ResetRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return ResetRequest{}, false, err
	}
	return req, true, nil
}

// EmailSender delivers the reset link. The default implementation is
// log-only; SMTP integration is pending.
type EmailSender interface {
	SendPasswordReset(to, resetLink string, expiresAt time.Time) error
}

// LogEmailSender writes outbound mail to the process log instead of
// sending it. Used whenever EMAIL_ENABLED is false or no SMTP
// transport exists.
type LogEmailSender struct {
	Enabled bool
	From    string
}

func (l *LogEmailSender) SendPasswordReset(to, resetLink string, expiresAt time.Time) error {
	if !l.Enabled {
		log.Printf("[email] simulated password reset email to=%s link=%s expires=%s",
			to, resetLink, expiresAt.UTC().Format(time.RFC3339))
		return nil
	}
	log.Printf("[email] EMAIL_ENABLED is set but no SMTP transport is configured; to=%s from=%s link=%s",
		to, l.From, resetLink)
	return nil
}

// PasswordResetService issues and consumes single-use, expiring reset
// tokens.
type PasswordResetService struct {
	cfg    config.Config
	users  UserStore
	store  ResetStore
	mailer EmailSender
}

func NewPasswordResetService(cfg config.Config, users UserStore, store ResetStore, mailer EmailSender) *PasswordResetService {
	return &PasswordResetService{cfg: cfg, users: users, store: store, mailer: mailer}
}

// RequestReset generates a reset token for the account owning the
// email and mails the reset link. An unknown email is not an error:
// the endpoint must answer identically either way so it cannot be used
// to probe which addresses have accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if s.store == nil {
		return internal(errors.New("reset token store not configured"))
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return internal(err)
	}

	token, err := utils.RandomToken(20)
	if err != nil {
		return internal(err)
	}
	ttl := time.Duration(s.cfg.ResetTTLMin) * time.Minute
	expiresAt := time.Now().UTC().Add(ttl)

	if err := s.store.Put(ctx, token, ResetRequest{
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: expiresAt,
	}, ttl); err != nil {
		return internal(err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppURL, "/"), token)
	if err := s.mailer.SendPasswordReset(u.Email, link, expiresAt); err != nil {
		return internal(err)
	}

	log.Printf("password reset link issued for user id=%d", u.ID)
	return nil
}

// ResetPassword consumes the token and stores a new password hash. A
// missing or already-consumed token is reported as unauthorized; the
// new password must satisfy the same policy as registration.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return invalid("password must be at least 8 characters")
	}
	if s.store == nil {
		return internal(errors.New("reset token store not configured"))
	}
	req, ok, err := s.store.Consume(ctx, token)
	if err != nil {
		return internal(err)
	}
	if !ok {
		return unauthorized("invalid or expired reset token")
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return internal(err)
	}
	if err := s.users.UpdatePassword(ctx, req.UserID, hash); err != nil {
		return internal(err)
	}

	log.Printf("password reset completed for user id=%d", req.UserID)
	return nil
}
