package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/audio"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/bot"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/infra/metrics"
)

// Sender é o recorte do cliente do gateway usado pelo handler.
type Sender interface {
	SendText(ctx context.Context, session, chatID, content string) error
	Reply(ctx context.Context, session, chatID, messageID, content string) error
	SendTyping(ctx context.Context, session, chatID string) error
	SendDocument(ctx context.Context, session, chatID, filename, mimetype string, data []byte, caption string) error
	Transcribe(ctx context.Context, session, audioBase64, filename string) (string, error)
}

// Answerer é o recorte do motor de conversa usado pelo handler.
type Answerer interface {
	GreetIfNeeded(userID string) (bot.Response, bool)
	Answer(userID, message string) bot.Response
}

const sentCacheTTL = 2 * time.Minute

type Options struct {
	Sessions         []string // sessões aceitas; vazio = todas
	AllowedGroups    []string // nil = todos os grupos
	AllowPrivate     bool
	IgnoredContacts  []string // ex: número do bot de transcrição
	TranscribeWindow time.Duration
}

// Handler recebe os webhooks e orquestra resposta de texto e de áudio.
type Handler struct {
	engine  Answerer
	sender  Sender
	store   *audio.Store
	batcher *audio.Batcher
	opts    Options
	log     *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time // eco das próprias respostas
}

func NewHandler(engine Answerer, sender Sender, store *audio.Store, opts Options, log *slog.Logger) *Handler {
	if opts.TranscribeWindow == 0 {
		opts.TranscribeWindow = 2 * time.Minute
	}
	h := &Handler{
		engine: engine,
		sender: sender,
		store:  store,
		opts:   opts,
		log:    log,
		now:    time.Now,
		sent:   make(map[string]time.Time),
	}
	return h
}

// SetBatcher liga o lote de áudios; separado do construtor porque o
// flush do lote precisa do próprio handler.
func (h *Handler) SetBatcher(b *audio.Batcher) { h.batcher = b }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		h.respond(w, http.StatusBadRequest, false, "corpo ilegível")
		return
	}
	ev, err := Parse(body)
	if err != nil {
		h.respond(w, http.StatusBadRequest, false, err.Error())
		return
	}

	metrics.WebhookEvents.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case "qr", "loading_screen":
		h.respond(w, http.StatusOK, true, ev.Type+" ignorado")
		return
	case "message_create", "message_ack":
		if ev.Message != nil && ev.Message.FromMe {
			h.respond(w, http.StatusOK, true, "evento próprio ignorado")
			return
		}
	}

	if len(h.opts.Sessions) > 0 && !contains(h.opts.Sessions, ev.SessionID) {
		h.respond(w, http.StatusOK, true, "sessão fora do filtro")
		return
	}

	switch ev.Type {
	case "message":
		h.handleMessage(ev)
	case "media":
		h.handleMedia(ev)
	default:
		h.log.Debug("evento sem tratamento", "sessao", ev.SessionID, "evento", ev.Type)
	}

	h.respond(w, http.StatusOK, true, "webhook recebido e processado")
}

func (h *Handler) respond(w http.ResponseWriter, status int, ok bool, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": ok, "message": msg})
}

func (h *Handler) handleMessage(ev *Event) {
	msg := ev.Message
	if msg == nil || msg.Type != "chat" || msg.Body == "" || msg.FromMe {
		return
	}
	if !h.chatAllowed(msg.From) {
		h.log.Debug("chat não permitido", "from", msg.From)
		return
	}
	if contains(h.opts.IgnoredContacts, msg.From) {
		return
	}

	// Texto do usuário cancela áudios aguardando lote.
	if h.batcher != nil && h.batcher.Cancel(msg.From) {
		h.log.Info("lote de áudio cancelado por mensagem de texto", "from", msg.From)
	}

	if h.wasJustSent(ev.SessionID, msg.From, msg.Body) {
		h.log.Debug("eco da própria resposta ignorado", "from", msg.From)
		return
	}

	go h.answerText(ev.SessionID, msg.From, msg.ID, msg.Body)
}

// answerText roda o fluxo completo de uma mensagem de texto: saudação
// em duas fases no primeiro contato, depois a resposta da consulta.
func (h *Handler) answerText(session, from, messageID, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_ = h.sender.SendTyping(ctx, session, from)

	if greet, ok := h.engine.GreetIfNeeded(from); ok {
		h.deliver(ctx, session, from, messageID, greet)
		time.Sleep(time.Second)
		_ = h.sender.SendTyping(ctx, session, from)
	}

	resp := h.engine.Answer(from, body)
	metrics.MessagesProcessed.WithLabelValues(string(resp.Kind)).Inc()
	h.deliver(ctx, session, from, messageID, resp)
}

// deliver envia a resposta: documento quando há arquivo, senão texto
// respondendo a mensagem original.
func (h *Handler) deliver(ctx context.Context, session, from, messageID string, resp bot.Response) {
	if resp.Message == "" {
		return
	}

	if resp.Filepath != "" {
		data, err := os.ReadFile(resp.Filepath)
		if err == nil {
			err = h.sender.SendDocument(ctx, session, from, resp.Filename, mimeFor(resp.Filename), data, resp.Message)
		}
		if err == nil {
			return
		}
		h.log.Error("enviar documento", "arquivo", resp.Filename, "err", err)
		// Cai para texto com o resumo.
	}

	h.markSent(session, from, resp.Message)
	var err error
	if messageID != "" {
		err = h.sender.Reply(ctx, session, from, messageID, resp.Message)
	} else {
		err = h.sender.SendText(ctx, session, from, resp.Message)
	}
	if err != nil {
		h.log.Error("enviar resposta", "from", from, "err", err)
	}
}

func (h *Handler) handleMedia(ev *Event) {
	msg, media := ev.Message, ev.Media
	if msg == nil || media == nil {
		return
	}
	isAudio := msg.Type == "ptt" || strings.Contains(media.Mimetype, "audio")
	if !isAudio {
		return
	}
	if !h.chatAllowed(msg.From) || contains(h.opts.IgnoredContacts, msg.From) {
		return
	}

	h.store.Save(msg.ID, audio.Payload{
		Data:      media.Data,
		Mimetype:  media.Mimetype,
		SessionID: ev.SessionID,
		ChatID:    msg.From,
	})
	if h.batcher != nil {
		h.batcher.Add(msg.From, audio.Item{
			AudioID:   msg.ID,
			SessionID: ev.SessionID,
			ChatID:    msg.From,
			MessageID: msg.ID,
		})
	}
}

// FlushAudioBatch transcreve o lote, manda a transcrição consolidada e
// responde a busca combinada. É o flush ligado ao Batcher.
func (h *Handler) FlushAudioBatch(userID string, items []audio.Item) {
	if len(items) == 0 {
		return
	}
	session := items[0].SessionID

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.TranscribeWindow*time.Duration(len(items)))
	defer cancel()

	_ = h.sender.Reply(ctx, session, userID, items[0].MessageID,
		fmt.Sprintf("🎤 Transcrevendo %d áudio(s)... Aguarde alguns segundos.", len(items)))

	type result struct {
		index int
		text  string
	}
	var results []result
	failed := false
	for i, it := range items {
		p, ok := h.store.Get(it.AudioID)
		if !ok {
			failed = true
			continue
		}
		text, err := h.sender.Transcribe(ctx, session, p.Data, "audio.ogg")
		if err != nil {
			h.log.Error("transcrever áudio", "user", userID, "err", err)
			metrics.Transcriptions.WithLabelValues("erro").Inc()
			failed = true
			continue
		}
		metrics.Transcriptions.WithLabelValues("ok").Inc()
		results = append(results, result{index: i + 1, text: text})
		h.store.Delete(it.AudioID)
	}

	if len(results) == 0 {
		if failed {
			_ = h.sender.SendText(ctx, session, userID,
				"❌ Erro ao transcrever os áudios. Tente enviá-los novamente individualmente.")
		}
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 *Transcrição de %d áudio(s):*\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "🎤 *Áudio %d:*\n\"%s\"\n\n", r.index, r.text)
	}
	_ = h.sender.SendText(ctx, session, userID, strings.TrimSpace(b.String()))

	var parts []string
	for _, r := range results {
		parts = append(parts, r.text)
	}
	combined := strings.Join(parts, " ")

	if greet, ok := h.engine.GreetIfNeeded(userID); ok {
		h.markSent(session, userID, greet.Message)
		_ = h.sender.SendText(ctx, session, userID, greet.Message)
		time.Sleep(time.Second)
	}

	resp := h.engine.Answer(userID, combined)
	metrics.MessagesProcessed.WithLabelValues(string(resp.Kind)).Inc()
	time.Sleep(time.Second)
	h.deliver(ctx, session, userID, "", resp)
}

// chatAllowed aplica o controle de grupos e de conversas privadas.
// ID de grupo carrega "-"; o resto é contato direto.
func (h *Handler) chatAllowed(chatID string) bool {
	if strings.Contains(chatID, "-") {
		if h.opts.AllowedGroups == nil {
			return true
		}
		return contains(h.opts.AllowedGroups, chatID)
	}
	return h.opts.AllowPrivate
}

func (h *Handler) markSent(session, from, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent[session+":"+from+":"+body] = h.now()
}

// wasJustSent detecta o eco de uma resposta recém-enviada pelo bot e
// consome a entrada do cache.
func (h *Handler) wasJustSent(session, from, body string) bool {
	key := session + ":" + from + ":" + body
	h.mu.Lock()
	defer h.mu.Unlock()
	at, ok := h.sent[key]
	if !ok {
		return false
	}
	delete(h.sent, key)
	return h.now().Sub(at) <= sentCacheTTL
}

// SweepSentCache remove entradas velhas do cache de eco.
func (h *Handler) SweepSentCache() int {
	cut := h.now().Add(-sentCacheTTL)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for k, at := range h.sent {
		if at.Before(cut) {
			delete(h.sent, k)
			n++
		}
	}
	return n
}

// StartSweep limpa o cache de eco em intervalo fixo.
func (h *Handler) StartSweep(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.SweepSentCache()
			}
		}
	}()
}

func mimeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(filename, ".html"):
		return "text/html"
	case strings.HasSuffix(filename, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
