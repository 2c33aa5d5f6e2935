package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/blurosiere/clinica/internal/auth"
	"github.com/blurosiere/clinica/internal/model"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userTypeKey contextKey = "userType"
)

// ErrNoUserInContext はコンテキストに認証情報が存在しない場合のエラー。
var ErrNoUserInContext = errors.New("no authenticated user in context")

// UserIDFromContext はコンテキストから認証済みユーザーIDを取り出す。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", ErrNoUserInContext
	}
	return userID, nil
}

// UserTypeFromContext はコンテキストから認証済みユーザー種別を取り出す。
func UserTypeFromContext(ctx context.Context) (model.UserType, error) {
	userType, ok := ctx.Value(userTypeKey).(model.UserType)
	if !ok {
		return "", ErrNoUserInContext
	}
	return userType, nil
}

// ContextWithUser はユーザーIDと種別を載せたコンテキストを返す。テスト用の補助。
func ContextWithUser(ctx context.Context, userID string, userType model.UserType) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userTypeKey, userType)
}

// TokenVerifier はアクセストークンの検証インターフェース。
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// NewAuthMiddleware はBearerトークンを検証し、認証情報をコンテキストへ
// 載せるミドルウェアを返す。トークン欠落・不正は401で応答する。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				WriteErrorResponse(w, model.NewInvalidCredentialsError())
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				WriteErrorResponse(w, model.NewInvalidCredentialsError())
				return
			}

			ctx := ContextWithUser(r.Context(), claims.Subject, model.UserType(claims.UserType))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePsychologist は心理士ユーザーのみを通すミドルウェア。
// 認証ミドルウェアの後段に配置する。
func RequirePsychologist() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userType, err := UserTypeFromContext(r.Context())
			if err != nil || userType != model.UserTypePsychologist {
				WriteErrorResponse(w, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
