package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/blurosiere/clinica/internal/model"
)

// Seeder は初回起動時にデモデータセットをストアへ投入する。
// 冪等: 既に存在するコレクションキーは一切上書きしない。
type Seeder struct {
	store Store
	now   func() time.Time
}

// NewSeeder はSeederを生成する。nowがnilの場合はtime.Nowを使用する。
func NewSeeder(store Store, now func() time.Time) *Seeder {
	if now == nil {
		now = time.Now
	}
	return &Seeder{store: store, now: now}
}

// Seed は不足しているコレクションをデモデータで初期化する。
// シード済みストアへの再実行はコレクションをバイト単位で変更しない。
func (s *Seeder) Seed(ctx context.Context) error {
	now := s.now()

	users, err := s.seedUsers(now)
	if err != nil {
		return err
	}

	collections := []struct {
		key  string
		data any
	}{
		{KeyUsers, users},
		{KeyPatients, seedPatients(now)},
		{KeyAppointments, seedAppointments(now)},
		{KeyRequests, seedRequests(now)},
	}

	for _, c := range collections {
		_, ok, err := s.store.Get(ctx, c.key)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", c.key, err)
		}
		if ok {
			continue
		}

		raw, err := json.Marshal(c.data)
		if err != nil {
			return fmt.Errorf("failed to encode seed data for %s: %w", c.key, err)
		}
		if err := s.store.Set(ctx, c.key, raw); err != nil {
			return fmt.Errorf("failed to seed collection %s: %w", c.key, err)
		}
		slog.Info("collection seeded", slog.String("key", c.key))
	}

	return nil
}

// seedPassword はデモユーザー共通の初期パスワード。
const seedPassword = "123456"

// seedUsers はデモユーザー（心理士3名と患者1名）を生成する。
// パスワードはシード時にbcryptでハッシュ化して保存する。
func (s *Seeder) seedUsers(now time.Time) ([]model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	users := []model.User{
		{ID: "2", Email: "ana@test.com", Type: model.UserTypePsychologist, Name: "Dra. Ana Costa", Specialty: "Terapia Cognitivo-Comportamental", LicenseID: "CRP 01/23456"},
		{ID: "3", Email: "carlos@test.com", Type: model.UserTypePsychologist, Name: "Dr. Carlos Mendes", Specialty: "Psicologia Infantil", LicenseID: "CRP 01/34567"},
		{ID: "4", Email: "lucia@test.com", Type: model.UserTypePsychologist, Name: "Dra. Lucia Ferreira", Specialty: "Terapia Familiar", LicenseID: "CRP 01/45678"},
		{ID: "5", Email: "paciente@test.com", Type: model.UserTypePatient, Name: "Maria Santos"},
	}
	for i := range users {
		users[i].PasswordHash = string(hash)
		users[i].CreatedAt = now
	}
	return users, nil
}

func seedPatients(now time.Time) []model.Patient {
	patients := []model.Patient{
		{ID: "20", Name: "Fernanda Lima", Email: "fernanda.lima@email.com", Phone: "(11) 99999-5555", BirthDate: "1992-03-12", Status: model.PatientStatusInTreatment, PsychologistID: "2"},
		{ID: "6", Name: "Lucas Pereira", Email: "lucas.pereira@email.com", Phone: "(11) 99999-6666", BirthDate: "1987-11-25", Status: model.PatientStatusActive, PsychologistID: "2"},
		{ID: "7", Name: "Camila Rodrigues", Email: "camila.rodrigues@email.com", Phone: "(11) 99999-7777", BirthDate: "1993-09-08", Status: model.PatientStatusInTreatment, PsychologistID: "2"},
		{ID: "8", Name: "Diego Santos", Email: "diego.santos@email.com", Phone: "(11) 99999-8888", BirthDate: "1991-06-30", Status: model.PatientStatusActive, PsychologistID: "2"},
		{ID: "9", Name: "Isabella Martins", Email: "isabella.martins@email.com", Phone: "(11) 99999-9999", BirthDate: "1994-04-14", Status: model.PatientStatusInTreatment, PsychologistID: "3"},
		{ID: "10", Name: "Gabriel Alves", Email: "gabriel.alves@email.com", Phone: "(11) 99999-0000", BirthDate: "1989-10-07", Status: model.PatientStatusActive, PsychologistID: "3"},
		{ID: "11", Name: "Sophia Ferreira", Email: "sophia.ferreira@email.com", Phone: "(11) 88888-1111", BirthDate: "1996-01-20", Status: model.PatientStatusInTreatment, PsychologistID: "3"},
		{ID: "12", Name: "Mateus Barbosa", Email: "mateus.barbosa@email.com", Phone: "(11) 88888-2222", BirthDate: "1986-12-11", Status: model.PatientStatusActive, PsychologistID: "3"},
		{ID: "13", Name: "Beatriz Souza", Email: "beatriz.souza@email.com", Phone: "(11) 88888-3333", BirthDate: "1990-08-05", Status: model.PatientStatusInTreatment, PsychologistID: "4"},
		{ID: "14", Name: "Thiago Nascimento", Email: "thiago.nascimento@email.com", Phone: "(11) 88888-4444", BirthDate: "1984-05-28", Status: model.PatientStatusActive, PsychologistID: "4"},
		{ID: "15", Name: "Larissa Campos", Email: "larissa.campos@email.com", Phone: "(11) 88888-5555", BirthDate: "1997-02-16", Status: model.PatientStatusInTreatment, PsychologistID: "4"},
		{ID: "16", Name: "André Moreira", Email: "andre.moreira@email.com", Phone: "(11) 88888-6666", BirthDate: "1983-11-09", Status: model.PatientStatusActive, PsychologistID: "4"},
	}
	for i := range patients {
		patients[i].Age = model.CalculateAge(patients[i].BirthDate, now)
		patients[i].CreatedAt = now
		patients[i].UpdatedAt = now
	}
	return patients
}

func seedAppointments(now time.Time) []model.Appointment {
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}

	appointments := []model.Appointment{
		{ID: "8", PatientID: "5", PsychologistID: "2", Date: day(-2), Time: "14:00", Status: model.AppointmentStatusCompleted, Description: "Terapia cognitivo-comportamental", Duration: 50, Notes: "Sessão produtiva com técnicas de TCC.", FullReport: "Paciente respondeu bem às intervenções."},
		{ID: "9", PatientID: "6", PsychologistID: "2", Date: day(2), Time: "15:00", Status: model.AppointmentStatusScheduled, Description: "Sessão de acompanhamento", Duration: 50},
		{ID: "10", PatientID: "7", PsychologistID: "2", Date: day(-8), Time: "11:00", Status: model.AppointmentStatusCompleted, Description: "Sessão inicial", Duration: 60, Notes: "Primeira consulta bem-sucedida.", FullReport: "Estabelecimento de vínculo terapêutico."},
		{ID: "11", PatientID: "9", PsychologistID: "3", Date: day(-1), Time: "09:00", Status: model.AppointmentStatusCompleted, Description: "Psicologia infantil - Ludoterapia", Duration: 45, Notes: "Sessão de ludoterapia muito produtiva.", FullReport: "Criança demonstrou boa interação."},
		{ID: "12", PatientID: "10", PsychologistID: "3", Date: day(4), Time: "10:00", Status: model.AppointmentStatusScheduled, Description: "Avaliação comportamental", Duration: 50},
		{ID: "13", PatientID: "13", PsychologistID: "4", Date: day(-6), Time: "16:00", Status: model.AppointmentStatusCompleted, Description: "Terapia familiar", Duration: 60, Notes: "Sessão familiar muito produtiva.", FullReport: "Família demonstrou boa comunicação."},
		{ID: "14", PatientID: "14", PsychologistID: "4", Date: day(1), Time: "14:00", Status: model.AppointmentStatusScheduled, Description: "Terapia de casal", Duration: 60},
		{ID: "17", PatientID: "5", PsychologistID: "2", Date: day(-7), Time: "14:00", Status: model.AppointmentStatusCompleted, Description: "Sessão inicial - Avaliação psicológica", Duration: 60, Notes: "Primeira consulta realizada com sucesso.", FullReport: "Anamnese completa. Identificados sintomas de ansiedade leve."},
		{ID: "18", PatientID: "5", PsychologistID: "2", Date: day(-14), Time: "15:00", Status: model.AppointmentStatusCompleted, Description: "Terapia cognitivo-comportamental", Duration: 50, Notes: "Trabalhamos técnicas de respiração.", FullReport: "Paciente respondeu bem às técnicas de TCC aplicadas."},
		{ID: "19", PatientID: "5", PsychologistID: "2", Date: day(-21), Time: "14:00", Status: model.AppointmentStatusCompleted, Description: "Sessão de acompanhamento", Duration: 50, Notes: "Progresso significativo observado.", FullReport: "Evolução positiva. Redução dos sintomas ansiosos."},
		{ID: "21", PatientID: "5", PsychologistID: "2", Date: day(1), Time: "15:00", Status: model.AppointmentStatusScheduled, Description: "Sessão de acompanhamento", Duration: 50},
	}
	for i := range appointments {
		appointments[i].CreatedAt = now
		appointments[i].UpdatedAt = now
	}
	return appointments
}

func seedRequests(now time.Time) []model.Request {
	return []model.Request{
		{
			ID: "1", PatientName: "João Silva", PatientEmail: "joao.silva@email.com", PatientPhone: "(11) 99999-1111",
			PreferredPsychologist: "2", Description: "Gostaria de agendar uma sessão. Preciso de ajuda com ansiedade e estresse no trabalho.",
			Urgency: model.UrgencyMedium, PreferredDates: []string{now.AddDate(0, 0, 3).Format("2006-01-02"), now.AddDate(0, 0, 4).Format("2006-01-02")},
			PreferredTimes: []string{"14:00", "15:00"}, Status: model.RequestStatusPending, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "2", PatientName: "Ana Oliveira", PatientEmail: "ana.oliveira@email.com", PatientPhone: "(11) 88888-2222",
			PreferredPsychologist: "3", Description: "Gostaria de agendar uma sessão para meu filho de 8 anos.",
			Urgency: model.UrgencyHigh, PreferredDates: []string{now.AddDate(0, 0, 2).Format("2006-01-02")},
			PreferredTimes: []string{"09:00", "10:00"}, Status: model.RequestStatusPending, CreatedAt: now.Add(-24 * time.Hour), UpdatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID: "3", PatientName: "Carolina Souza", PatientEmail: "carolina.souza@email.com", PatientPhone: "(11) 97777-3333",
			PreferredPsychologist: "2", Description: "Gostaria de iniciar terapia para ansiedade.",
			Urgency: model.UrgencyHigh, PreferredDates: []string{now.AddDate(0, 0, 7).Format("2006-01-02"), now.AddDate(0, 0, 9).Format("2006-01-02")},
			PreferredTimes: []string{"09:00", "10:00"}, Status: model.RequestStatusPending, CreatedAt: now, UpdatedAt: now,
		},
	}
}
