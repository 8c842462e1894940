package audio

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBatcherFlushesAfterSilence(t *testing.T) {
	var mu sync.Mutex
	var got []Item
	done := make(chan struct{})

	b := NewBatcher(30*time.Millisecond, func(user string, items []Item) {
		mu.Lock()
		got = items
		mu.Unlock()
		close(done)
	}, testLogger())

	b.Add("u1", Item{AudioID: "a1"})
	time.Sleep(10 * time.Millisecond)
	b.Add("u1", Item{AudioID: "a2"}) // reinicia o timer

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lote não fechou")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0].AudioID != "a1" || got[1].AudioID != "a2" {
		t.Fatalf("itens do lote: %+v", got)
	}
	if b.PendingCount("u1") != 0 {
		t.Fatalf("lote não foi limpo")
	}
}

func TestBatcherCancelOnText(t *testing.T) {
	fired := make(chan struct{}, 1)
	b := NewBatcher(20*time.Millisecond, func(string, []Item) {
		fired <- struct{}{}
	}, testLogger())

	b.Add("u1", Item{AudioID: "a1"})
	if !b.Cancel("u1") {
		t.Fatalf("cancelamento deveria achar lote pendente")
	}
	if b.Cancel("u1") {
		t.Fatalf("segundo cancelamento deveria ser vazio")
	}

	select {
	case <-fired:
		t.Fatalf("lote cancelado processou mesmo assim")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestBatcherIsolatesUsers(t *testing.T) {
	var mu sync.Mutex
	flushed := map[string]int{}
	done := make(chan struct{}, 2)

	b := NewBatcher(20*time.Millisecond, func(user string, items []Item) {
		mu.Lock()
		flushed[user] = len(items)
		mu.Unlock()
		done <- struct{}{}
	}, testLogger())

	b.Add("u1", Item{AudioID: "a1"})
	b.Add("u2", Item{AudioID: "b1"})
	b.Add("u2", Item{AudioID: "b2"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("lotes não fecharam")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if flushed["u1"] != 1 || flushed["u2"] != 2 {
		t.Fatalf("lotes por usuário: %+v", flushed)
	}
}

func TestStoreSweep(t *testing.T) {
	s := NewStore()
	base := time.Now()
	s.now = func() time.Time { return base }
	s.Save("velho", Payload{Data: "x"})
	s.Save("novo", Payload{Data: "y", ReceivedAt: base.Add(20 * time.Minute)})

	s.now = func() time.Time { return base.Add(40 * time.Minute) }
	if n := s.Sweep(); n != 1 {
		t.Fatalf("varridos: %d", n)
	}
	if _, ok := s.Get("velho"); ok {
		t.Fatalf("áudio antigo sobreviveu")
	}
	if _, ok := s.Get("novo"); !ok {
		t.Fatalf("áudio recente caiu")
	}
}
