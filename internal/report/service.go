// Package report は心理士向けの統計レポートを提供する。
// 集計はすべて予約・患者コレクションの一括スキャンで行い、結果のキャッシュは持たない。
package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/repository"
)

// riskAlertLimit はリスクアラートとして列挙する患者数の上限。
const riskAlertLimit = 3

// Service は統計レポートのサービス層。
type Service struct {
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
}

// NewService はServiceを生成する。
func NewService(
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
) *Service {
	return &Service{
		patients:     patients,
		appointments: appointments,
	}
}

// MonthCount は月別のセッション実施数。
type MonthCount struct {
	Month    string `json:"month"` // YYYY-MM
	Sessions int    `json:"sessions"`
}

// RiskAlert は経過観察を促すアラート。
// 実際のリスク評価モデルではなく、ステータスに基づく単純なラベル付け。
type RiskAlert struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Level       string `json:"level"`
	Reason      string `json:"reason"`
}

// Summary は心理士ひとり分の統計レポート。
type Summary struct {
	ActivePatients          int            `json:"activePatients"`
	TotalSessions           int            `json:"totalSessions"`
	CompletedSessions       int            `json:"completedSessions"`
	AttendanceRate          float64        `json:"attendanceRate"` // completed / total * 100
	StatusBreakdown         map[string]int `json:"statusBreakdown"`
	PatientsWithSessions    int            `json:"patientsWithSessions"`
	PatientsWithoutSessions int            `json:"patientsWithoutSessions"`
	MonthlyFrequency        []MonthCount   `json:"monthlyFrequency"`
	RiskAlerts              []RiskAlert    `json:"riskAlerts"`
}

// Summarize は指定心理士の統計レポートを計算する。
func (s *Service) Summarize(ctx context.Context, psychologistID string) (*Summary, error) {
	patients, err := s.patients.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("患者一覧の取得に失敗しました: %w", err)
	}
	appointments, err := s.appointments.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	summary := &Summary{
		TotalSessions:   len(appointments),
		StatusBreakdown: make(map[string]int),
	}

	patientsWithSessions := make(map[string]bool)
	monthly := make(map[string]int)
	for _, a := range appointments {
		summary.StatusBreakdown[string(a.Status)]++
		patientsWithSessions[a.PatientID] = true
		if a.Status == model.AppointmentStatusCompleted {
			summary.CompletedSessions++
			if len(a.Date) >= 7 {
				monthly[a.Date[:7]]++
			}
		}
	}

	if summary.TotalSessions > 0 {
		rate := float64(summary.CompletedSessions) / float64(summary.TotalSessions) * 100
		summary.AttendanceRate = math.Round(rate*10) / 10
	}

	for _, p := range patients {
		if p.Status == model.PatientStatusActive || p.Status == model.PatientStatusInTreatment {
			summary.ActivePatients++
		}
		if patientsWithSessions[p.ID] {
			summary.PatientsWithSessions++
		} else {
			summary.PatientsWithoutSessions++
		}
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	summary.MonthlyFrequency = make([]MonthCount, 0, len(months))
	for _, m := range months {
		summary.MonthlyFrequency = append(summary.MonthlyFrequency, MonthCount{Month: m, Sessions: monthly[m]})
	}

	summary.RiskAlerts = riskAlerts(patients, patientsWithSessions)
	return summary, nil
}

// riskAlerts は先頭の数名にラベルを付ける簡易アラート。
// セッション実績のない患者を中リスク、それ以外を低リスクとして扱う。
func riskAlerts(patients []model.Patient, withSessions map[string]bool) []RiskAlert {
	alerts := make([]RiskAlert, 0, riskAlertLimit)
	for _, p := range patients {
		if len(alerts) == riskAlertLimit {
			break
		}
		alert := RiskAlert{
			PatientID:   p.ID,
			PatientName: p.Name,
			Level:       "low",
			Reason:      "acompanhamento de rotina",
		}
		if !withSessions[p.ID] {
			alert.Level = "medium"
			alert.Reason = "nenhuma sessão registrada"
		}
		alerts = append(alerts, alert)
	}
	return alerts
}
