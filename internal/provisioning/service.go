// Package provisioning は管理者によるアカウント作成ワークフローを提供する。
//
// 認証アカウントとプロフィールは別々のストアに作成されるため単一トランザクションにできない。
// プロフィール作成に失敗した場合は作成済みの認証アカウントを削除して元に戻す。
// 継続日数と学習パスは付随レコードとして扱い、失敗しても作成自体は成功とする。
package provisioning

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
)

// 付随レコード作成に失敗した場合にレスポンスへ含める警告。
const (
	WarningStreakFailed        = "streak record could not be initialized"
	WarningLearningPathFailed  = "learning path could not be initialized"
	WarningLearningPathSkipped = "learning path not created: assessment_completed is set but english_level is empty"
)

// メトリクスのラベル値。
const (
	outcomeSuccess         = "success"
	outcomeValidation      = "validation_error"
	outcomeDuplicate       = "duplicate_email"
	outcomeIdentityFailed  = "identity_failed"
	outcomeProfileFailed   = "profile_failed"
	compensationDeleted    = "deleted"
	compensationFailed     = "failed"
	bestEffortStreak       = "streak"
	bestEffortLearningPath = "learning_path"
)

// IdentityProvisioner は認証アカウントの作成と補償削除を行うインターフェース。
type IdentityProvisioner interface {
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	CreateIdentity(ctx context.Context, email, password string, confirmed bool) (*model.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// ProfileWriter はプロフィールの挿入インターフェース。
type ProfileWriter interface {
	Create(ctx context.Context, profile *model.Profile) error
}

// StreakCreator は継続日数レコードの挿入インターフェース。
type StreakCreator interface {
	Create(ctx context.Context, streak *model.StreakRecord) error
}

// LearningPathCreator は学習パスの挿入インターフェース。
type LearningPathCreator interface {
	Create(ctx context.Context, path *model.LearningPath) error
}

// TextSanitizer は自由記述テキストからマークアップを除去する。
type TextSanitizer interface {
	Sanitize(raw string) string
	SanitizeList(raw []string) []string
}

// Recorder はワークフローの結果をメトリクスとして記録する。
type Recorder interface {
	RecordProvisioning(outcome string, duration time.Duration)
	RecordCompensation(result string)
	RecordBestEffortFailure(record string)
}

// Result はアカウント作成の結果。
type Result struct {
	UserID   string
	Warnings []string
	Stages   []Stage
}

// Service はアカウント作成ワークフローを実行する。
type Service struct {
	identities IdentityProvisioner
	profiles   ProfileWriter
	streaks    StreakCreator
	paths      LearningPathCreator
	sanitizer  TextSanitizer
	recorder   Recorder
	logger     *slog.Logger
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithRecorder はメトリクス記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger はロガーを設定する。未指定の場合はslog.Default()を使う。
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService はServiceを生成する。
func NewService(
	identities IdentityProvisioner,
	profiles ProfileWriter,
	streaks StreakCreator,
	paths LearningPathCreator,
	sanitizer TextSanitizer,
	opts ...Option,
) *Service {
	s := &Service{
		identities: identities,
		profiles:   profiles,
		streaks:    streaks,
		paths:      paths,
		sanitizer:  sanitizer,
		recorder:   nopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision はアカウントを作成する。
// 順序: 入力検証 → メール重複確認 → 認証アカウント作成 → プロフィール作成 → 付随レコード作成。
// 返すエラーは常に*model.APIErrorで、呼び出し元に中間状態を見せることはない。
func (s *Service) Provision(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	t := newTracker()

	req.normalize()
	if err := req.Validate(); err != nil {
		t.advance(StageFailed)
		s.finish(outcomeValidation, start)
		return nil, model.NewValidationError(err.Error())
	}

	// 1. 認証アカウント作成
	ident, apiErr := s.createIdentity(ctx, req)
	if apiErr != nil {
		t.advance(StageFailed)
		return nil, s.fail(apiErr, start)
	}
	t.advance(StageIdentityCreated)
	log := s.logger.With(slog.String("user_id", ident.ID))
	log.Info("認証アカウントを作成しました", slog.String("stage", string(t.stage)))

	// 2. プロフィール作成
	profile := s.buildProfile(ident, req)
	if err := s.profiles.Create(ctx, profile); err != nil {
		log.Error("プロフィールの作成に失敗しました",
			slog.String("stage", string(t.stage)),
			slog.String("error", err.Error()),
		)
		t.advance(StageRollingBack)
		s.compensate(ctx, log, ident.ID)
		t.advance(StageFailed)
		s.finish(outcomeProfileFailed, start)
		return nil, model.NewProfileCreationError(err)
	}
	t.advance(StageProfileCreated)

	// 3. 付随レコード作成（ベストエフォート）
	warnings := s.initializeDependents(ctx, log, ident.ID, req)
	t.advance(StageDependentsAttempted)

	t.advance(StageDone)
	s.finish(outcomeSuccess, start)
	log.Info("アカウントを作成しました",
		slog.String("stage", string(t.stage)),
		slog.String("user_type", string(profile.UserType)),
		slog.Int("warnings", len(warnings)),
	)

	return &Result{UserID: ident.ID, Warnings: warnings, Stages: t.history}, nil
}

// createIdentity はメール重複を事前確認してから確認済みの認証アカウントを作成する。
// 同時リクエストで事前確認をすり抜けた場合もバックエンドの一意制約で重複として扱う。
func (s *Service) createIdentity(ctx context.Context, req Request) (*model.Identity, *model.APIError) {
	existing, err := s.identities.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.NewProvisioningError(err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	ident, err := s.identities.CreateIdentity(ctx, req.Email, req.Password, true)
	if errors.Is(err, identity.ErrDuplicateEmail) {
		return nil, model.NewDuplicateEmailError()
	}
	if err != nil {
		return nil, model.NewProvisioningError(err)
	}
	return ident, nil
}

func (s *Service) buildProfile(ident *model.Identity, req Request) *model.Profile {
	p := &model.Profile{
		ID:                  ident.ID,
		Email:               ident.Email,
		FullName:            s.sanitizer.Sanitize(req.FullName),
		UserType:            req.UserType,
		IsAdmin:             req.IsAdmin || req.isSuperAdmin,
		IsSuperAdmin:        req.isSuperAdmin,
		AssessmentCompleted: req.AssessmentCompleted,
		EnglishLevel:        req.EnglishLevel,
		Dialect:             s.sanitizer.Sanitize(req.Dialect),
		Strengths:           s.sanitizer.SanitizeList(req.Strengths),
		Recommendations:     s.sanitizer.SanitizeList(req.Recommendations),
	}
	if p.Email == "" {
		p.Email = req.Email
	}
	if req.MosqueID != "" {
		id := req.MosqueID
		p.MosqueID = &id
	}
	if req.CompanyID != "" {
		id := req.CompanyID
		p.CompanyID = &id
	}
	// スコアはアセスメント済みの場合のみ保存する
	if req.AssessmentCompleted && req.AssessmentScore != nil {
		score := int(math.Round(*req.AssessmentScore))
		p.AssessmentScore = &score
	}
	return p
}

// compensate は作成済みの認証アカウントを削除する。
// 削除の失敗はログとメトリクスに残すのみで、呼び出し元へ返すエラーは変えない。
// 残った孤立アカウントはワーカーの照合処理が削除する。
func (s *Service) compensate(ctx context.Context, log *slog.Logger, identityID string) {
	// リクエストがキャンセルされていても補償削除は実行する
	ctx = context.WithoutCancel(ctx)
	err := s.identities.DeleteIdentity(ctx, identityID)
	if err != nil && !errors.Is(err, identity.ErrIdentityNotFound) {
		s.recorder.RecordCompensation(compensationFailed)
		log.Error("認証アカウントの補償削除に失敗しました",
			slog.String("stage", string(StageRollingBack)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.recorder.RecordCompensation(compensationDeleted)
	log.Warn("認証アカウントを補償削除しました", slog.String("stage", string(StageRollingBack)))
}

// initializeDependents は継続日数と学習パスを作成する。
// 失敗は警告として返し、ワークフローは成功として扱う。
func (s *Service) initializeDependents(ctx context.Context, log *slog.Logger, userID string, req Request) []string {
	var warnings []string

	if err := s.streaks.Create(ctx, &model.StreakRecord{UserID: userID}); err != nil {
		s.recorder.RecordBestEffortFailure(bestEffortStreak)
		log.Warn("継続日数レコードの作成に失敗しました",
			slog.String("stage", string(StageProfileCreated)),
			slog.String("error", err.Error()),
		)
		warnings = append(warnings, WarningStreakFailed)
	}

	if !req.AssessmentCompleted {
		return warnings
	}
	if req.EnglishLevel == "" {
		log.Info("英語レベルが未指定のため学習パスを作成しません")
		return append(warnings, WarningLearningPathSkipped)
	}

	path := &model.LearningPath{
		UserID:               userID,
		ProficiencyLevel:     req.EnglishLevel,
		RecommendedScenarios: []string{},
		CompletedScenarios:   []string{},
	}
	if err := s.paths.Create(ctx, path); err != nil {
		s.recorder.RecordBestEffortFailure(bestEffortLearningPath)
		log.Warn("学習パスの作成に失敗しました",
			slog.String("stage", string(StageProfileCreated)),
			slog.String("error", err.Error()),
		)
		warnings = append(warnings, WarningLearningPathFailed)
	}
	return warnings
}

// fail は認証アカウント作成前後の失敗を記録してエラーを返す。
func (s *Service) fail(apiErr *model.APIError, start time.Time) error {
	switch apiErr.Code {
	case model.ErrCodeDuplicateEmail:
		s.finish(outcomeDuplicate, start)
		s.logger.Info("メールアドレスが既に登録されています")
	default:
		s.finish(outcomeIdentityFailed, start)
		s.logger.Error("認証アカウントの作成に失敗しました", slog.String("error", apiErr.Error()))
	}
	return apiErr
}

func (s *Service) finish(outcome string, start time.Time) {
	s.recorder.RecordProvisioning(outcome, time.Since(start))
}

type nopRecorder struct{}

func (nopRecorder) RecordProvisioning(string, time.Duration) {}
func (nopRecorder) RecordCompensation(string) {}
func (nopRecorder) RecordBestEffortFailure(string) {}
