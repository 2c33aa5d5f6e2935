// Package model はドメインモデルを定義する。
package model

import "time"

// Appointment はセッション予約を表す。
// キャンセルはステータス書き込みであり、レコードの削除は行わない。
type Appointment struct {
	ID             string            `json:"id"`
	PatientID      string            `json:"patientId"`
	PsychologistID string            `json:"psychologistId"`
	Date           string            `json:"date"` // YYYY-MM-DD
	Time           string            `json:"time"` // HH:MM
	Status         AppointmentStatus `json:"status"`
	Description    string            `json:"description"`
	Duration       int               `json:"duration"` // 分
	Notes          string            `json:"notes"`
	FullReport     string            `json:"fullReport"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// AppointmentStatus はセッション予約のステータスを表す。
type AppointmentStatus string

const (
	// AppointmentStatusScheduled は予約済みの状態。新規作成時のデフォルト。
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	// AppointmentStatusStarted はセッション開始済みの状態。
	AppointmentStatusStarted AppointmentStatus = "started"
	// AppointmentStatusCompleted はセッション完了の終端状態。
	AppointmentStatusCompleted AppointmentStatus = "completed"
	// AppointmentStatusCanceled はキャンセルによる終端状態。
	AppointmentStatusCanceled AppointmentStatus = "canceled"
	// AppointmentStatusRescheduled は再調整された状態。
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// appointmentTransitions はセッション予約の許可された遷移表。
// completed と canceled は終端状態で、以降の遷移は持たない。
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusStarted,
		AppointmentStatusCompleted,
		AppointmentStatusCanceled,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusRescheduled: {
		AppointmentStatusStarted,
		AppointmentStatusCompleted,
		AppointmentStatusCanceled,
	},
	AppointmentStatusStarted: {
		AppointmentStatusCompleted,
		AppointmentStatusCanceled,
	},
}

// Valid は既知のステータスかどうかを返す。
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusStarted,
		AppointmentStatusCompleted, AppointmentStatusCanceled,
		AppointmentStatusRescheduled:
		return true
	}
	return false
}

// CanTransition は現在のステータスからtoへの遷移が許可されているかを返す。
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal は終端状態かどうかを返す。
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0 && s.Valid()
}
