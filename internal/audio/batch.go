package audio

import (
	"log/slog"
	"sync"
	"time"
)

// Item é um áudio aguardando o lote do usuário fechar.
type Item struct {
	AudioID   string
	SessionID string
	ChatID    string
	MessageID string
}

// Batcher junta áudios consecutivos do mesmo usuário: o timer de
// espera reinicia a cada chegada e o lote só processa depois do
// silêncio. Mensagem de texto do usuário cancela o lote inteiro.
type Batcher struct {
	mu    sync.Mutex
	pend  map[string]*pending
	delay time.Duration
	flush func(userID string, items []Item)
	log   *slog.Logger
}

type pending struct {
	items []Item
	timer *time.Timer
}

func NewBatcher(delay time.Duration, flush func(userID string, items []Item), log *slog.Logger) *Batcher {
	return &Batcher{
		pend:  make(map[string]*pending),
		delay: delay,
		flush: flush,
		log:   log,
	}
}

// Add enfileira um áudio e reinicia o timer do usuário.
func (b *Batcher) Add(userID string, it Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pend[userID]
	if !ok {
		p = &pending{}
		b.pend[userID] = p
	} else if p.timer != nil {
		p.timer.Stop()
	}
	p.items = append(p.items, it)
	p.timer = time.AfterFunc(b.delay, func() { b.fire(userID) })
	b.log.Debug("áudio no lote", "user", userID, "total", len(p.items))
}

func (b *Batcher) fire(userID string) {
	b.mu.Lock()
	p, ok := b.pend[userID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.pend, userID)
	items := p.items
	b.mu.Unlock()

	b.flush(userID, items)
}

// Cancel descarta o lote pendente do usuário, se houver.
func (b *Batcher) Cancel(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pend[userID]
	if !ok {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(b.pend, userID)
	b.log.Debug("lote de áudio cancelado", "user", userID, "descartados", len(p.items))
	return true
}

// PendingCount existe para inspeção em testes e métricas.
func (b *Batcher) PendingCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pend[userID]; ok {
		return len(p.items)
	}
	return 0
}
