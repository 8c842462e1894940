package dialog

import (
	"context"
	"sync"
	"time"
)

const (
	// TTL geral do contexto; o fluxo pendente tem timeout próprio de
	// 3 minutos, aplicado pelo motor de conversa.
	TTL     = 10 * time.Minute
	FlowTTL = 3 * time.Minute
)

// Repo guarda contextos de conversa em memória. Mensagens simultâneas
// do mesmo usuário valem last-write-wins; usuários diferentes não
// compartilham nada.
type Repo struct {
	mu  sync.Mutex
	m   map[string]*Context
	now func() time.Time
}

func NewRepo() *Repo {
	return &Repo{m: make(map[string]*Context), now: time.Now}
}

// Get devolve nil para contexto inexistente ou mais velho que o TTL.
func (r *Repo) Get(userID string) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[userID]
	if !ok {
		return nil
	}
	if r.now().Sub(c.UpdatedAt) > TTL {
		delete(r.m, userID)
		return nil
	}
	cp := *c
	return &cp
}

// Update aplica uma mutação parcial sobre o contexto (criando se
// preciso) e carimba UpdatedAt.
func (r *Repo) Update(userID string, fn func(*Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[userID]
	if !ok {
		c = &Context{UserID: userID, State: StateIdle}
		r.m[userID] = c
	}
	fn(c)
	c.UpdatedAt = r.now()
}

func (r *Repo) Reset(userID string) {
	r.mu.Lock()
	delete(r.m, userID)
	r.mu.Unlock()
}

// Sweep remove contextos expirados e devolve quantos caíram.
func (r *Repo) Sweep() int {
	cut := r.now().Add(-TTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.m {
		if c.UpdatedAt.Before(cut) {
			delete(r.m, id)
			n++
		}
	}
	return n
}

// StartSweep varre em intervalo fixo até o contexto fechar.
func (r *Repo) StartSweep(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Sweep()
			}
		}
	}()
}
