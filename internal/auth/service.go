// Package auth はログイン・ユーザー登録とアクセストークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/repository"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	tokens   *TokenIssuer
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	patients repository.PatientRepository,
	tokens *TokenIssuer,
) *Service {
	return &Service{
		users:    users,
		patients: patients,
		tokens:   tokens,
		now:      time.Now,
	}
}

// LoginResult はログイン成功時のレスポンス。
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login はメールアドレスとパスワードを照合し、トークンを発行する。
// ユーザーが存在しない場合もパスワード不一致の場合も、
// 区別できないようINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("user_type", string(user.Type)),
	)

	return &LoginResult{Token: token, User: user.Sanitized()}, nil
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Type      model.UserType `json:"type"`
	// 心理士のみ
	Specialty string `json:"specialty"`
	LicenseID string `json:"licenseId"`
	// 患者のみ
	BirthDate string `json:"birthDate"`
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Email) == "":
		return model.NewValidationError("email is required")
	case len(in.Password) < 6:
		return model.NewValidationError("password must be at least 6 characters")
	case strings.TrimSpace(in.Name) == "":
		return model.NewValidationError("name is required")
	case !in.Type.Valid():
		return model.NewValidationError("type must be psychologist or patient")
	}
	return nil
}

// Register は新規ユーザーを登録し、即座にログイン済みトークンを返す。
// 患者ユーザーの場合は患者レコードも併せて作成する（担当心理士は未割り当て）。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Type:         in.Type,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Specialty:    in.Specialty,
		LicenseID:    in.LicenseID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if in.Type == model.UserTypePatient {
		patient := &model.Patient{
			Name:      user.Name,
			Email:     user.Email,
			Phone:     user.Phone,
			BirthDate: in.BirthDate,
			Age:       model.CalculateAge(in.BirthDate, s.now()),
			Status:    model.PatientStatusActive,
		}
		if err := s.patients.Create(ctx, patient); err != nil {
			// ユーザー作成は成功しているため登録自体は継続する
			slog.Warn("failed to create patient record for new user",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("user_type", string(user.Type)),
	)

	return &LoginResult{Token: token, User: user.Sanitized()}, nil
}

// CurrentUser はトークン検証済みのユーザーIDから本人情報を返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user", userID)
	}
	return user.Sanitized(), nil
}

// ListPsychologists は在籍する心理士の一覧を返す。認証不要の公開情報。
func (s *Service) ListPsychologists(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListPsychologists(ctx)
	if err != nil {
		return nil, fmt.Errorf("心理士一覧の取得に失敗しました: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u.Sanitized())
	}
	return out, nil
}
