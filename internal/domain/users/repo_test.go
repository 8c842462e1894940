package users

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMarkGreetedPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estado", "saudados.json")
	r := NewRepo(path, testLogger())

	if r.Greeted("5511999@c.us") {
		t.Fatalf("usuário novo não deveria constar")
	}
	if err := r.MarkGreeted("5511999@c.us"); err != nil {
		t.Fatalf("MarkGreeted: %v", err)
	}
	if !r.Greeted("5511999@c.us") {
		t.Fatalf("usuário não registrado")
	}

	// Recarga do arquivo enxerga o registro.
	again := NewRepo(path, testLogger())
	if !again.Greeted("5511999@c.us") {
		t.Fatalf("registro não sobreviveu à recarga")
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saudados.json")
	if err := os.WriteFile(path, []byte("{nao é json"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	r := NewRepo(path, testLogger())
	if r.Greeted("qualquer") {
		t.Fatalf("arquivo corrompido deveria virar conjunto vazio")
	}
}
