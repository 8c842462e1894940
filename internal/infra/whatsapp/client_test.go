package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSendTextHitsGateway(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "segredo", testLogger())
	if err := c.SendText(context.Background(), "onn", "5554999@c.us", "oi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if gotPath != "/client/sendMessage/onn" {
		t.Fatalf("path: %s", gotPath)
	}
	if gotKey != "segredo" {
		t.Fatalf("x-api-key não enviado")
	}
	if gotBody["chatId"] != "5554999@c.us" || gotBody["contentType"] != "string" || gotBody["content"] != "oi" {
		t.Fatalf("corpo: %+v", gotBody)
	}
}

func TestTranscribeAddsBase64Prefix(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"transcription": "branco liso dezoito"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", testLogger())
	text, err := c.Transcribe(context.Background(), "onn", "QUJD", "audio.ogg")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "branco liso dezoito" {
		t.Fatalf("transcrição: %q", text)
	}
	if !strings.HasPrefix(gotBody["audioBase64"].(string), "data:audio/ogg;base64,") {
		t.Fatalf("prefixo base64 ausente: %v", gotBody["audioBase64"])
	}
}

func TestGatewayErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sessão não conectada", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", testLogger())
	err := c.SendText(context.Background(), "onn", "x@c.us", "oi")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("erro esperado com status: %v", err)
	}
}
