package alerts

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Repo persiste os dois documentos do sistema de alertas
// (monitored-materials.json e alert-state.json), regravados inteiros a
// cada mudança.
type Repo struct {
	monitoredPath string
	statePath     string
	log           *slog.Logger

	mu        sync.Mutex
	monitored []Monitored
	states    []State
}

func NewRepo(stateDir string, log *slog.Logger) *Repo {
	r := &Repo{
		monitoredPath: filepath.Join(stateDir, "monitored-materials.json"),
		statePath:     filepath.Join(stateDir, "alert-state.json"),
		log:           log,
	}
	r.load()
	return r
}

func (r *Repo) load() {
	if data, err := os.ReadFile(r.monitoredPath); err == nil {
		var doc monitoredDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			r.log.Warn("monitored-materials.json inválido", "err", err)
		} else {
			r.monitored = doc.Materials
		}
	}
	if data, err := os.ReadFile(r.statePath); err == nil {
		var doc stateDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			r.log.Warn("alert-state.json inválido", "err", err)
		} else {
			r.states = doc.Alerts
		}
	}
}

func (r *Repo) saveMonitoredLocked() error {
	return writeDoc(r.monitoredPath, monitoredDoc{Materials: r.monitored})
}

func (r *Repo) saveStatesLocked() error {
	return writeDoc(r.statePath, stateDoc{Alerts: r.states})
}

func writeDoc(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *Repo) Monitored() []Monitored {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Monitored, len(r.monitored))
	copy(out, r.monitored)
	return out
}

func (r *Repo) Find(code string) (Monitored, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.monitored {
		if m.Code == code {
			return m, true
		}
	}
	return Monitored{}, false
}

func (r *Repo) Add(m Monitored) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitored = append(r.monitored, m)
	return r.saveMonitoredLocked()
}

// Remove tira o material e também o estado de alerta dele.
func (r *Repo) Remove(code string) (Monitored, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.monitored {
		if m.Code == code {
			r.monitored = append(r.monitored[:i], r.monitored[i+1:]...)
			if err := r.saveMonitoredLocked(); err != nil {
				r.log.Error("gravação de monitored-materials.json falhou", "err", err)
			}
			for j, s := range r.states {
				if s.Code == code {
					r.states = append(r.states[:j], r.states[j+1:]...)
					break
				}
			}
			if err := r.saveStatesLocked(); err != nil {
				r.log.Error("gravação de alert-state.json falhou", "err", err)
			}
			return m, true
		}
	}
	return Monitored{}, false
}

// StateFor devolve o estado do código, criando um zerado se não houver.
func (r *Repo) StateFor(code string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s.Code == code {
			return s
		}
	}
	s := State{Code: code}
	r.states = append(r.states, s)
	return s
}

// PutState regrava o estado do código e persiste.
func (r *Repo) PutState(st State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.states {
		if s.Code == st.Code {
			r.states[i] = st
			return r.saveStatesLocked()
		}
	}
	r.states = append(r.states, st)
	return r.saveStatesLocked()
}
