// Package users guarda o conjunto durável de usuários que já
// receberam a saudação inicial.
package users

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type fileDoc struct {
	Users []string `json:"users"`
}

// Repo é append-only: carrega na partida e regrava o documento
// inteiro a cada adição.
type Repo struct {
	path string
	log  *slog.Logger

	mu  sync.Mutex
	set map[string]bool
}

func NewRepo(path string, log *slog.Logger) *Repo {
	r := &Repo{path: path, log: log, set: make(map[string]bool)}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("leitura do arquivo de saudados falhou", "path", path, "err", err)
		}
		return r
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("arquivo de saudados corrompido, recomeçando vazio", "path", path, "err", err)
		return r
	}
	for _, u := range doc.Users {
		r.set[u] = true
	}
	return r
}

func (r *Repo) Greeted(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set[userID]
}

// MarkGreeted registra e persiste; repetição é no-op.
func (r *Repo) MarkGreeted(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set[userID] {
		return nil
	}
	r.set[userID] = true
	return r.saveLocked()
}

func (r *Repo) saveLocked() error {
	doc := fileDoc{Users: make([]string, 0, len(r.set))}
	for u := range r.set {
		doc.Users = append(doc.Users, u)
	}
	sort.Strings(doc.Users)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
