package dialog

import (
	"testing"
	"time"
)

func TestGetExpiresAfterTTL(t *testing.T) {
	r := NewRepo()
	base := time.Now()
	r.now = func() time.Time { return base }

	r.Update("u1", func(c *Context) { c.SearchTerm = "branco" })

	r.now = func() time.Time { return base.Add(9 * time.Minute) }
	if c := r.Get("u1"); c == nil || c.SearchTerm != "branco" {
		t.Fatalf("contexto vivo esperado: %+v", c)
	}

	r.now = func() time.Time { return base.Add(11 * time.Minute) }
	if c := r.Get("u1"); c != nil {
		t.Fatalf("contexto expirado deveria sumir: %+v", c)
	}
}

func TestUpdateMergesLastWriteWins(t *testing.T) {
	r := NewRepo()
	r.Update("u1", func(c *Context) {
		c.State = StateAwaitSelection
		c.SearchTerm = "branco"
	})
	r.Update("u1", func(c *Context) { c.State = StateAwaitThickness })

	c := r.Get("u1")
	if c == nil || c.State != StateAwaitThickness || c.SearchTerm != "branco" {
		t.Fatalf("merge parcial falhou: %+v", c)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRepo()
	r.Update("u1", func(c *Context) { c.SearchTerm = "branco" })
	c := r.Get("u1")
	c.SearchTerm = "mexido"
	if got := r.Get("u1"); got.SearchTerm != "branco" {
		t.Fatalf("cópia não isolou o estado: %+v", got)
	}
}

func TestSweep(t *testing.T) {
	r := NewRepo()
	base := time.Now()
	r.now = func() time.Time { return base }
	r.Update("velho", func(c *Context) {})
	r.now = func() time.Time { return base.Add(5 * time.Minute) }
	r.Update("novo", func(c *Context) {})

	r.now = func() time.Time { return base.Add(12 * time.Minute) }
	if n := r.Sweep(); n != 1 {
		t.Fatalf("varridos: %d", n)
	}
	if r.Get("novo") == nil {
		t.Fatalf("contexto recente caiu na varredura")
	}
}
