package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestRun_SeedCommand_CreatesStoreFile はseedコマンドがストアファイルに
// デモデータを書き込んで終了することを検証する。
func TestRun_SeedCommand_CreatesStoreFile(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "clinica.json")
	setTestEnv(t)
	t.Setenv("STORE_PATH", storePath)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"seed"}); err != nil {
		t.Fatalf("Run(seed) failed: %v", err)
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("store file not written: %v", err)
	}
	if !bytes.Contains(data, []byte("blurosiere_users")) {
		t.Errorf("store file does not contain seeded users: %s", data)
	}
}

// TestRun_SeedCommand_IsIdempotent はseedコマンドを2回実行しても
// データが二重投入されないことを検証する。
func TestRun_SeedCommand_IsIdempotent(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "clinica.json")
	setTestEnv(t)
	t.Setenv("STORE_PATH", storePath)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"seed"}); err != nil {
		t.Fatalf("first Run(seed) failed: %v", err)
	}
	first, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("store file not written: %v", err)
	}

	if err := Run(&buf, []string{"seed"}); err != nil {
		t.Fatalf("second Run(seed) failed: %v", err)
	}
	second, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("store file not readable after second seed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("seed should not modify an already seeded store")
	}
}

// TestRun_HealthcheckCommand_NoServer はサーバーが起動していない状態での
// healthcheckがエラーを返すことを検証する。
func TestRun_HealthcheckCommand_NoServer(t *testing.T) {
	t.Setenv("SERVER_PORT", "59999")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"healthcheck"}); err == nil {
		t.Fatal("healthcheck against a stopped server should return error")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-jwt-secret-32bytes-long!!!!")
	t.Setenv("SEED_ON_START", "false")
	t.Setenv("READ_DELAY", "0s")
	t.Setenv("WRITE_DELAY", "0s")
}
