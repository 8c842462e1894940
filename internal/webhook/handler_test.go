package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/audio"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/bot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeSender struct {
	mu          sync.Mutex
	texts       []string
	replies     []string
	documents   []string
	transcripts map[string]string // base64 -> texto
	failAll     bool
}

func (f *fakeSender) SendText(_ context.Context, _, _, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, content)
	return nil
}

func (f *fakeSender) Reply(_ context.Context, _, _, _, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeSender) SendTyping(context.Context, string, string) error { return nil }

func (f *fakeSender) SendDocument(_ context.Context, _, _, filename, _ string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, filename)
	return nil
}

func (f *fakeSender) Transcribe(_ context.Context, _, audioBase64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", fmt.Errorf("serviço indisponível")
	}
	if t, ok := f.transcripts[audioBase64]; ok {
		return t, nil
	}
	return "", fmt.Errorf("áudio desconhecido")
}

func (f *fakeSender) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string{}, f.texts...)
	return append(out, f.replies...)
}

type fakeEngine struct {
	mu       sync.Mutex
	answered []string
	greeted  map[string]bool
}

func (f *fakeEngine) GreetIfNeeded(userID string) (bot.Response, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.greeted == nil {
		f.greeted = make(map[string]bool)
	}
	if f.greeted[userID] {
		return bot.Response{}, false
	}
	f.greeted[userID] = true
	return bot.Response{Kind: bot.KindGreeting, Message: "olá"}, true
}

func (f *fakeEngine) Answer(userID, message string) bot.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, message)
	return bot.Response{Kind: bot.KindMaterialDetails, Message: "detalhes de " + message}
}

func (f *fakeEngine) answers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.answered...)
}

func newTestHandler(opts Options) (*Handler, *fakeSender, *fakeEngine) {
	sender := &fakeSender{transcripts: make(map[string]string)}
	engine := &fakeEngine{}
	h := NewHandler(engine, sender, audio.NewStore(), opts, testLogger())
	return h, sender, engine
}

func postEvent(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condição não aconteceu a tempo")
}

func TestIgnoredEvents(t *testing.T) {
	h, sender, engine := newTestHandler(Options{AllowPrivate: true})

	rec := postEvent(t, h, `{"sessionId":"onn","event":"qr","data":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	postEvent(t, h, `{"sessionId":"onn","event":"message_create","data":{"message":{"fromMe":true,"body":"eco","from":"x@c.us","type":"chat"}}}`)

	time.Sleep(50 * time.Millisecond)
	if len(engine.answers()) != 0 || len(sender.all()) != 0 {
		t.Fatalf("eventos ignorados não deviam processar nada")
	}
}

func TestSessionFilter(t *testing.T) {
	h, _, engine := newTestHandler(Options{AllowPrivate: true, Sessions: []string{"onn"}})

	postEvent(t, h, `{"sessionId":"outra","event":"message","data":{"message":{"id":"1","from":"55@c.us","body":"oi","type":"chat"}}}`)
	time.Sleep(50 * time.Millisecond)
	if len(engine.answers()) != 0 {
		t.Fatalf("sessão fora do filtro processou mensagem")
	}
}

func TestGroupAndPrivateFiltering(t *testing.T) {
	h, _, _ := newTestHandler(Options{
		AllowPrivate:  false,
		AllowedGroups: []string{"1203-grupo@g.us"},
	})

	if h.chatAllowed("5551@c.us") {
		t.Fatalf("privado devia estar bloqueado")
	}
	if !h.chatAllowed("1203-grupo@g.us") {
		t.Fatalf("grupo permitido devia passar")
	}
	if h.chatAllowed("9999-outro@g.us") {
		t.Fatalf("grupo fora da lista devia ser barrado")
	}

	open, _, _ := newTestHandler(Options{AllowPrivate: true})
	if !open.chatAllowed("5551@c.us") || !open.chatAllowed("9999-outro@g.us") {
		t.Fatalf("sem lista de grupos, todos os grupos passam")
	}
}

func TestTwoPhaseGreeting(t *testing.T) {
	h, sender, engine := newTestHandler(Options{AllowPrivate: true})

	postEvent(t, h, `{"sessionId":"onn","event":"message","data":{"message":{"id":"m1","from":"55@c.us","body":"Branco Liso","type":"chat"}}}`)

	waitFor(t, func() bool { return len(sender.all()) >= 2 })
	msgs := sender.all()
	joined := strings.Join(msgs, "|")
	if !strings.Contains(joined, "olá") || !strings.Contains(joined, "detalhes de Branco Liso") {
		t.Fatalf("saudação e resposta esperadas: %v", msgs)
	}
	if got := engine.answers(); len(got) != 1 || got[0] != "Branco Liso" {
		t.Fatalf("consulta original devia ser respondida uma vez: %v", got)
	}
}

func TestEchoSuppression(t *testing.T) {
	h, _, engine := newTestHandler(Options{AllowPrivate: true})
	engine.greeted = map[string]bool{"55@c.us": true}

	h.markSent("onn", "55@c.us", "detalhes de algo")

	postEvent(t, h, `{"sessionId":"onn","event":"message","data":{"message":{"id":"m1","from":"55@c.us","body":"detalhes de algo","type":"chat"}}}`)
	time.Sleep(50 * time.Millisecond)
	if len(engine.answers()) != 0 {
		t.Fatalf("eco da própria resposta foi processado")
	}

	// Segunda vez a entrada já foi consumida do cache.
	postEvent(t, h, `{"sessionId":"onn","event":"message","data":{"message":{"id":"m2","from":"55@c.us","body":"detalhes de algo","type":"chat"}}}`)
	waitFor(t, func() bool { return len(engine.answers()) == 1 })
}

func TestTextCancelsAudioBatch(t *testing.T) {
	h, _, engine := newTestHandler(Options{AllowPrivate: true})
	engine.greeted = map[string]bool{"55@c.us": true}

	flushed := make(chan struct{}, 1)
	b := audio.NewBatcher(200*time.Millisecond, func(string, []audio.Item) {
		flushed <- struct{}{}
	}, testLogger())
	h.SetBatcher(b)

	postEvent(t, h, `{"sessionId":"onn","event":"media","data":{"message":{"id":"a1","from":"55@c.us","type":"ptt"},"messageMedia":{"data":"QUJD","mimetype":"audio/ogg"}}}`)
	if b.PendingCount("55@c.us") != 1 {
		t.Fatalf("áudio não entrou no lote")
	}

	postEvent(t, h, `{"sessionId":"onn","event":"message","data":{"message":{"id":"m1","from":"55@c.us","body":"oi","type":"chat"}}}`)
	if b.PendingCount("55@c.us") != 0 {
		t.Fatalf("texto devia cancelar o lote")
	}

	select {
	case <-flushed:
		t.Fatalf("lote cancelado não podia disparar")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestFlushAudioBatchHappyPath(t *testing.T) {
	h, sender, engine := newTestHandler(Options{AllowPrivate: true})
	engine.greeted = map[string]bool{"55@c.us": true}
	sender.transcripts["b64-1"] = "branco liso"
	sender.transcripts["b64-2"] = "dezoito milimetros"

	h.store.Save("a1", audio.Payload{Data: "b64-1", SessionID: "onn", ChatID: "55@c.us"})
	h.store.Save("a2", audio.Payload{Data: "b64-2", SessionID: "onn", ChatID: "55@c.us"})

	h.FlushAudioBatch("55@c.us", []audio.Item{
		{AudioID: "a1", SessionID: "onn", ChatID: "55@c.us", MessageID: "a1"},
		{AudioID: "a2", SessionID: "onn", ChatID: "55@c.us", MessageID: "a2"},
	})

	msgs := sender.all()
	joined := strings.Join(msgs, "|")
	if !strings.Contains(joined, "📝 *Transcrição de 2 áudio(s):*") {
		t.Fatalf("transcrição consolidada ausente: %v", msgs)
	}
	if !strings.Contains(joined, "Transcrevendo 2 áudio(s)") {
		t.Fatalf("aviso inicial ausente: %v", msgs)
	}
	if got := engine.answers(); len(got) != 1 || got[0] != "branco liso dezoito milimetros" {
		t.Fatalf("busca combinada: %v", got)
	}
	if _, ok := h.store.Get("a1"); ok {
		t.Fatalf("áudio transcrito devia sair do armazenamento")
	}
}

func TestFlushAudioBatchAllFail(t *testing.T) {
	h, sender, engine := newTestHandler(Options{AllowPrivate: true})
	engine.greeted = map[string]bool{"55@c.us": true}
	sender.failAll = true

	h.store.Save("a1", audio.Payload{Data: "b64-1", SessionID: "onn", ChatID: "55@c.us"})
	h.FlushAudioBatch("55@c.us", []audio.Item{
		{AudioID: "a1", SessionID: "onn", ChatID: "55@c.us", MessageID: "a1"},
	})

	joined := strings.Join(sender.all(), "|")
	if !strings.Contains(joined, "❌ Erro ao transcrever os áudios") {
		t.Fatalf("aviso de falha ausente: %v", sender.all())
	}
	if len(engine.answers()) != 0 {
		t.Fatalf("sem transcrição não há busca")
	}
}

func TestSweepSentCache(t *testing.T) {
	h, _, _ := newTestHandler(Options{AllowPrivate: true})

	base := time.Now()
	h.now = func() time.Time { return base }
	h.markSent("onn", "55@c.us", "velho")

	h.now = func() time.Time { return base.Add(3 * time.Minute) }
	if n := h.SweepSentCache(); n != 1 {
		t.Fatalf("varredura devia remover 1, removeu %d", n)
	}
}
