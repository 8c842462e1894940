package audio

import (
	"context"
	"sync"
	"time"
)

// Payload é o áudio cru recebido pelo webhook, guardado até a
// transcrição acontecer.
type Payload struct {
	Data       string // base64
	Mimetype   string
	SessionID  string
	ChatID     string
	ReceivedAt time.Time
}

const storeTTL = 30 * time.Minute

// Store guarda áudios em memória, com varredura periódica dos velhos.
type Store struct {
	mu  sync.Mutex
	m   map[string]Payload
	now func() time.Time
}

func NewStore() *Store {
	return &Store{m: make(map[string]Payload), now: time.Now}
}

func (s *Store) Save(id string, p Payload) {
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = s.now()
	}
	s.mu.Lock()
	s.m[id] = p
	s.mu.Unlock()
}

func (s *Store) Get(id string) (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	return p, ok
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

// Sweep remove áudios mais velhos que o TTL e devolve quantos caíram.
func (s *Store) Sweep() int {
	cut := s.now().Add(-storeTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, p := range s.m {
		if p.ReceivedAt.Before(cut) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// StartSweep roda a varredura em intervalo fixo até o contexto fechar.
func (s *Store) StartSweep(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
