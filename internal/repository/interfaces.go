// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/blurosiere/clinica/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ListPsychologists は心理士ユーザーの一覧を返す。
	ListPsychologists(ctx context.Context) ([]model.User, error)

	// Create はユーザーを作成する。IDが未設定の場合は新しいIDを採番する。
	// メールアドレスが既存ユーザーと重複する場合はDUPLICATE_USERを返す。
	Create(ctx context.Context, user *model.User) error
}

// PatientRepository は患者データの永続化インターフェース。
type PatientRepository interface {
	// FindByID は指定IDの患者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Patient, error)

	// FindByEmailAndPsychologist はメールアドレスと担当心理士の組で患者を検索する。
	// 見つからない場合はnilを返す。
	FindByEmailAndPsychologist(ctx context.Context, email, psychologistID string) (*model.Patient, error)

	// ListByPsychologist は担当心理士の患者一覧を返す。
	ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Patient, error)

	// ListByEmail はメールアドレスに一致する患者一覧を返す。
	// 同じ人物が複数の心理士の下に登録されている場合があるため複数件になりうる。
	ListByEmail(ctx context.Context, email string) ([]model.Patient, error)

	// Create は患者を作成する。IDが未設定の場合は新しいIDを採番する。
	// 同一担当心理士の下に同じメールアドレスの患者が存在する場合は
	// DUPLICATE_PATIENTを返し、コレクションを変更しない。
	Create(ctx context.Context, patient *model.Patient) error

	// UpdateStatus は患者のステータスを更新して更新後の患者を返す。
	// 見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error)

	// AppendNote は患者カルテへメモを追記して更新後の患者を返す。
	// 見つからない場合はnilを返す。
	AppendNote(ctx context.Context, id string, note model.PatientNote) (*model.Patient, error)
}

// AppointmentRepository はセッション予約データの永続化インターフェース。
type AppointmentRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Appointment, error)

	// ListByPsychologist は担当心理士の予約一覧を返す。
	ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Appointment, error)

	// ListByPatient は患者の予約一覧を返す。
	ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)

	// Create は予約を作成する。IDが未設定の場合は新しいIDを採番する。
	Create(ctx context.Context, appointment *model.Appointment) error

	// UpdateStatus は予約のステータスを更新して更新後の予約を返す。
	// 遷移の妥当性はサービス層で検証する。見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)

	// UpdateNotes は予約のセッションメモと詳細レポートを更新して更新後の予約を返す。
	// 他のフィールドは変更しない。見つからない場合はnilを返す。
	UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error)
}

// RequestRepository はセッション依頼データの永続化インターフェース。
type RequestRepository interface {
	// FindByID は指定IDの依頼を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Request, error)

	// List は依頼一覧を返す。preferredPsychologistが空でない場合は
	// その心理士宛の依頼のみに絞り込む。
	List(ctx context.Context, preferredPsychologist string) ([]model.Request, error)

	// Create は依頼を作成する。IDが未設定の場合は新しいIDを採番する。
	// 同じメールアドレスから同じ心理士への保留中依頼が既に存在する場合は
	// DUPLICATE_REQUESTを返し、コレクションを変更しない。
	Create(ctx context.Context, request *model.Request) error

	// UpdateStatus は依頼のステータスと対応メモを更新して更新後の依頼を返す。
	// 遷移の妥当性はサービス層で検証する。見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus, notes string) (*model.Request, error)
}
