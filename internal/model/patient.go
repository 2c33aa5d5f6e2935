// Package model はドメインモデルを定義する。
package model

import "time"

// Patient は登録患者を表す。
// PsychologistID は依頼受理まで空文字となる（未割り当て）。
type Patient struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	BirthDate      string        `json:"birthDate"` // YYYY-MM-DD
	Age            int           `json:"age"`
	Status         PatientStatus `json:"status"`
	PsychologistID string        `json:"psychologistId,omitempty"`
	Notes          []PatientNote `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// PatientNote は患者カルテへの追記メモを表す。
type PatientNote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PatientStatus は患者のステータスを表す。
type PatientStatus string

const (
	// PatientStatusActive は通院可能な患者。
	PatientStatusActive PatientStatus = "active"
	// PatientStatusInactive は休止中の患者。
	PatientStatusInactive PatientStatus = "inactive"
	// PatientStatusInTreatment は治療継続中の患者。
	PatientStatusInTreatment PatientStatus = "in_treatment"
)

// Valid は既知の患者ステータスかどうかを返す。
func (s PatientStatus) Valid() bool {
	switch s {
	case PatientStatusActive, PatientStatusInactive, PatientStatusInTreatment:
		return true
	}
	return false
}

// CalculateAge は生年月日（YYYY-MM-DD）から基準日時点の年齢を算出する。
// パースできない場合は0を返す。
func CalculateAge(birthDate string, now time.Time) int {
	birth, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
