// Package model はドメインモデルを定義する。
package model

import "time"

// User はプラットフォームの利用者（心理士または患者）を表す。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Type         UserType  `json:"type"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	// 心理士のみが持つフィールド
	Specialty string    `json:"specialty,omitempty"`
	LicenseID string    `json:"licenseId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sanitized はパスワードハッシュを取り除いた複製を返す。
// APIレスポンスに載せるユーザーは必ずこの複製を使う。
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	return &u
}

// UserType はユーザー種別を表す。
type UserType string

const (
	// UserTypePsychologist は心理士ユーザー。
	UserTypePsychologist UserType = "psychologist"
	// UserTypePatient は患者ユーザー。
	UserTypePatient UserType = "patient"
)

// Valid は既知のユーザー種別かどうかを返す。
func (t UserType) Valid() bool {
	return t == UserTypePsychologist || t == UserTypePatient
}
