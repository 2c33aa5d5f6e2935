// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/blurosiere/clinica/internal/auth"
	"github.com/blurosiere/clinica/internal/metrics"
	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	ListPsychologists(ctx context.Context) ([]model.User, error)
}

// AuthHandler はログイン・ユーザー登録のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。collectorはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はメールアドレスとパスワードによるログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin(false)
		middleware.HandleServiceError(w, err)
		return
	}

	h.recordLogin(true)
	writeJSON(w, http.StatusOK, result)
}

// Register は新規ユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListPsychologists は在籍心理士の一覧を返す。認証不要の公開エンドポイント。
// GET /api/psychologists
func (h *AuthHandler) ListPsychologists(w http.ResponseWriter, r *http.Request) {
	psychologists, err := h.service.ListPsychologists(r.Context())
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, psychologists)
}

func (h *AuthHandler) recordLogin(success bool) {
	if h.collector != nil {
		h.collector.RecordLogin(success)
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
