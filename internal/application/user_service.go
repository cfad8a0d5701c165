package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
	"shoplist-backend/pkg/helpers"
	"shoplist-backend/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailInUse         = errors.New("email already in use")
	ErrProfileMissing     = errors.New("profile not found for authenticated user")
	ErrAccountPending     = errors.New("account awaiting approval")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLen = 6

// UserService owns registration, sign-in, sessions, and profile mutations.
// Credentials live in Postgres; the profile shown in the app is a document
// in the users collection keyed by the same ID, and a session is only valid
// while that profile exists and is active.
type UserService struct {
	Repo      repository.UserRepository
	Store     repository.DocumentStore
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
	Pub       *helpers.RabbitPublisher
	AppName   string
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates credentials and a pending profile document. Validation
// failures are detected before any credential or store write happens. The
// new account holds no session; it cannot act until another member activates
// it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if in.Password != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLen {
		return "", ErrWeakPassword
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	u := &entity.AuthUser{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return "", ErrEmailInUse
		}
		return "", err
	}

	profile := map[string]any{
		"name":     u.Name,
		"email":    u.Email,
		"photoURL": nil,
		"bio":      "",
		"isActive": false,
	}
	if err := s.Store.Set(ctx, repository.Users, u.ID, profile); err != nil {
		return "", err
	}
	return u.ID, nil
}

// Login validates credentials, then requires a bound active profile before
// issuing any session. Pending and orphaned accounts are refused outright.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.UserProfile, TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	doc, err := s.Store.Get(ctx, repository.Users, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if doc == nil {
		return nil, TokenPair{}, ErrProfileMissing
	}
	profile := mapProfile(*doc)
	if !profile.IsActive {
		return nil, TokenPair{}, ErrAccountPending
	}

	pair, err := s.issueTokens(ctx, profile)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return profile, pair, nil
}

// issueTokens generates an access/refresh pair and records the session in Redis.
func (s *UserService) issueTokens(ctx context.Context, p *entity.UserProfile) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(p.UID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(p.UID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(p.UID)
		fields := map[string]any{
			"user_id":    p.UID,
			"email":      p.Email,
			"name":       p.Name,
			"sid":        sid,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		}
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and token pair. The bound profile must
// still be active; otherwise the session is revoked instead.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(claims.UserID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}

	doc, err := s.Store.Get(ctx, repository.Users, claims.UserID)
	if err != nil {
		return TokenPair{}, "", err
	}
	if doc == nil {
		_ = s.SignOut(ctx, claims.UserID)
		return TokenPair{}, "", ErrProfileMissing
	}
	profile := mapProfile(*doc)
	if !profile.IsActive {
		_ = s.SignOut(ctx, claims.UserID)
		return TokenPair{}, "", ErrAccountPending
	}

	pair, err := s.issueTokens(ctx, profile)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, profile.UID, nil
}

// SignOut revokes the user's session. Safe to call when no session exists.
func (s *UserService) SignOut(ctx context.Context, uid string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, sessionKey(uid)).Err()
}

// GetProfile returns the mapped profile document.
func (s *UserService) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	doc, err := s.Store.Get(ctx, repository.Users, uid)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrUserNotFound
	}
	return mapProfile(*doc), nil
}

// Users returns every profile document, newest first.
func (s *UserService) Users(ctx context.Context) ([]entity.UserProfile, error) {
	docs, err := s.Store.List(ctx, repository.Users, repository.CreatedDesc)
	if err != nil {
		return nil, err
	}
	return mapProfiles(docs), nil
}

// SetUserActive flips the approval flag. Deactivation revokes any live
// session immediately; activation queues a notification email.
func (s *UserService) SetUserActive(ctx context.Context, uid string, active bool) error {
	doc, err := s.Store.Get(ctx, repository.Users, uid)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrUserNotFound
	}
	if err := s.Store.Update(ctx, repository.Users, uid, map[string]any{"isActive": active}); err != nil {
		return err
	}

	if !active {
		if err := s.SignOut(ctx, uid); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("uid", uid).Warn("session revoke failed")
		}
		return nil
	}

	if s.Pub != nil {
		profile := mapProfile(*doc)
		job := mailer.AccountApprovedJob(profile.Email, profile.Name, s.AppName)
		if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("uid", uid).Warn("approval email publish failed")
		}
	}
	return nil
}

type ProfilePatch struct {
	Name     *string
	Bio      *string
	PhotoURL *string
}

// UpdateProfileDocument patches only the supplied profile fields; updatedAt
// is always refreshed.
func (s *UserService) UpdateProfileDocument(ctx context.Context, uid string, patch ProfilePatch) error {
	data := map[string]any{}
	if patch.Name != nil {
		data["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Bio != nil {
		data["bio"] = *patch.Bio
	}
	if patch.PhotoURL != nil {
		data["photoURL"] = *patch.PhotoURL
	}
	if len(data) == 0 {
		return nil
	}
	return s.Store.Update(ctx, repository.Users, uid, data)
}

// UploadAvatar streams the file to blob storage under
// avatars/{uid}/{timestamp}.{ext} and returns the public URL. Progress is
// reported as a fraction in [0,1]. The profile document is not touched here;
// callers patch photoURL separately.
func (s *UserService) UploadAvatar(ctx context.Context, uid string, r io.Reader, size int64, filename, contentType string, onProgress func(float64)) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("blob storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	objectPath := fmt.Sprintf("avatars/%s/%d%s", uid, time.Now().UnixMilli(), ext)
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r, size, onProgress)
}
