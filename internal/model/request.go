// Package model はドメインモデルを定義する。
package model

import "time"

// Request は患者からのセッション依頼を表す。
// 依頼者は未登録の可能性があるため、連絡先は外部キーではなく
// 非正規化されたスナップショットとして保持する。
type Request struct {
	ID                    string        `json:"id"`
	PatientName           string        `json:"patientName"`
	PatientEmail          string        `json:"patientEmail"`
	PatientPhone          string        `json:"patientPhone"`
	PreferredPsychologist string        `json:"preferredPsychologist"`
	Description           string        `json:"description"`
	Urgency               Urgency       `json:"urgency"`
	PreferredDates        []string      `json:"preferredDates,omitempty"`
	PreferredTimes        []string      `json:"preferredTimes,omitempty"`
	Status                RequestStatus `json:"status"`
	Notes                 string        `json:"notes,omitempty"` // 受理・却下時の対応メモ
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// RequestStatus は依頼のステータスを表す。
type RequestStatus string

const (
	// RequestStatusPending は未対応の依頼。新規作成時のデフォルト。
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted は受理された終端状態。
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected は却下された終端状態。
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid は既知の依頼ステータスかどうかを返す。
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

// Terminal は終端状態（accepted / rejected）かどうかを返す。
// 終端状態に達した依頼はそれ以上変更できない。
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// CanTransition は現在のステータスからtoへの遷移が許可されているかを返す。
// 許可される遷移は pending → accepted と pending → rejected のみ。
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	return s == RequestStatusPending && to.Terminal()
}

// Urgency は依頼の緊急度を表す。
type Urgency string

const (
	// UrgencyLow は低緊急度。
	UrgencyLow Urgency = "low"
	// UrgencyMedium は中緊急度。
	UrgencyMedium Urgency = "medium"
	// UrgencyHigh は高緊急度。
	UrgencyHigh Urgency = "high"
)

// Valid は既知の緊急度かどうかを返す。
func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}
