// Package request はセッション依頼のドメインロジックを提供する。
package request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/repository"
)

// Service はセッション依頼のサービス層。
// 依頼の受理は患者登録を伴う複合操作であり、部分的な書き込みを残さない。
type Service struct {
	requests repository.RequestRepository
	patients repository.PatientRepository
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	requests repository.RequestRepository,
	patients repository.PatientRepository,
) *Service {
	return &Service{
		requests: requests,
		patients: patients,
		now:      time.Now,
	}
}

// CreateInput は依頼作成の入力。認証不要の公開フォームから受け取る。
type CreateInput struct {
	PatientName           string   `json:"patientName"`
	PatientEmail          string   `json:"patientEmail"`
	PatientPhone          string   `json:"patientPhone"`
	PreferredPsychologist string   `json:"preferredPsychologist"`
	Description           string   `json:"description"`
	Urgency               string   `json:"urgency"`
	PreferredDates        []string `json:"preferredDates"`
	PreferredTimes        []string `json:"preferredTimes"`
}

func (in CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.PatientName) == "":
		return model.NewValidationError("patientName is required")
	case strings.TrimSpace(in.PatientEmail) == "":
		return model.NewValidationError("patientEmail is required")
	case in.PreferredPsychologist == "":
		return model.NewValidationError("preferredPsychologist is required")
	case !model.Urgency(in.Urgency).Valid():
		return model.NewValidationError("urgency must be low, medium or high")
	}
	return nil
}

// Create は新しい依頼を受け付ける。ステータスはpendingで初期化される。
// 同じメールアドレスから同じ心理士への保留中依頼はDUPLICATE_REQUESTで拒否される。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	request := &model.Request{
		PatientName:           strings.TrimSpace(in.PatientName),
		PatientEmail:          strings.TrimSpace(in.PatientEmail),
		PatientPhone:          in.PatientPhone,
		PreferredPsychologist: in.PreferredPsychologist,
		Description:           in.Description,
		Urgency:               model.Urgency(in.Urgency),
		PreferredDates:        in.PreferredDates,
		PreferredTimes:        in.PreferredTimes,
		Status:                model.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	slog.Info("session request submitted",
		slog.String("request_id", request.ID),
		slog.String("preferred_psychologist", request.PreferredPsychologist),
		slog.String("urgency", string(request.Urgency)),
	)
	return request, nil
}

// List は依頼一覧を返す。psychologistIDが空の場合は全件を返す。
func (s *Service) List(ctx context.Context, psychologistID string) ([]model.Request, error) {
	requests, err := s.requests.List(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("依頼一覧の取得に失敗しました: %w", err)
	}
	return requests, nil
}

// Accept は依頼を受理し、依頼の連絡先スナップショットから患者を登録する。
// 手順:
//  1. 依頼の存在と保留中であることを確認する
//  2. 同じメールアドレスの患者が同じ心理士の下に既に存在しないか確認する
//  3. 患者を作成する
//  4. 依頼ステータスをacceptedへ書き換える
//
// 患者作成が重複で失敗した場合、ステータス書き込みは行われず依頼は
// pendingのまま残る（部分コミットなし）。
func (s *Service) Accept(ctx context.Context, id, notes string) (*model.Request, error) {
	request, err := s.loadPending(ctx, id, model.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}

	existing, err := s.patients.FindByEmailAndPsychologist(ctx, request.PatientEmail, request.PreferredPsychologist)
	if err != nil {
		return nil, fmt.Errorf("患者の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicatePatientError(request.PatientEmail)
	}

	patient := &model.Patient{
		Name:           request.PatientName,
		Email:          request.PatientEmail,
		Phone:          request.PatientPhone,
		Status:         model.PatientStatusActive,
		PsychologistID: request.PreferredPsychologist,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}

	updated, err := s.requests.UpdateStatus(ctx, id, model.RequestStatusAccepted, notes)
	if err != nil {
		return nil, fmt.Errorf("依頼ステータスの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("request", id)
	}

	slog.Info("session request accepted",
		slog.String("request_id", id),
		slog.String("patient_id", patient.ID),
	)
	return updated, nil
}

// Reject は依頼を却下する。対応メモを残せる。
func (s *Service) Reject(ctx context.Context, id, notes string) (*model.Request, error) {
	if _, err := s.loadPending(ctx, id, model.RequestStatusRejected); err != nil {
		return nil, err
	}

	updated, err := s.requests.UpdateStatus(ctx, id, model.RequestStatusRejected, notes)
	if err != nil {
		return nil, fmt.Errorf("依頼ステータスの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("request", id)
	}

	slog.Info("session request rejected", slog.String("request_id", id))
	return updated, nil
}

// UpdateStatus はステータス指定による受理・却下の入口。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, notes string) (*model.Request, error) {
	switch status {
	case model.RequestStatusAccepted:
		return s.Accept(ctx, id, notes)
	case model.RequestStatusRejected:
		return s.Reject(ctx, id, notes)
	default:
		return nil, model.NewValidationError("status must be accepted or rejected")
	}
}

// loadPending は保留中の依頼を取得する。終端状態の依頼は変更できない。
func (s *Service) loadPending(ctx context.Context, id string, to model.RequestStatus) (*model.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("依頼の取得に失敗しました: %w", err)
	}
	if request == nil {
		return nil, model.NewNotFoundError("request", id)
	}
	if !request.Status.CanTransition(to) {
		return nil, model.NewInvalidTransitionError(string(request.Status), string(to))
	}
	return request, nil
}
