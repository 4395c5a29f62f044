// Package auth はメールアドレスとパスワードによるログインとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
	"github.com/hitoshi/guardlingo/internal/repository"
)

// CredentialVerifier は資格情報を検証するインターフェース。
// identity.Backendが満たす。
type CredentialVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) (*model.Identity, error)
}

// ProfileFinder はプロフィールを取得するインターフェース。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	verifier    CredentialVerifier
	profiles    ProfileFinder
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	verifier CredentialVerifier,
	profiles ProfileFinder,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		verifier:    verifier,
		profiles:    profiles,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login は資格情報を検証してセッションを発行する。
// プロフィールを持たない認証アカウントはログインできない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	ident, err := s.verifier.VerifyPassword(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		slog.Info("login rejected", slog.String("reason", "invalid_credentials"))
		return nil, model.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify credentials: %w", err)
	}

	profile, err := s.profiles.FindByID(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		slog.Warn("login rejected", slog.String("reason", "profile_missing"), slog.String("user_id", ident.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", ident.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentProfile はセッションのユーザーIDからプロフィールを取得する。
func (s *Service) GetCurrentProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewUnauthorizedError()
	}

	return profile, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
