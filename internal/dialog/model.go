package dialog

import (
	"time"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

type State string

const (
	StateIdle           State = "idle"
	StateAwaitSelection State = "await_selection" // lista numerada pendente
	StateAwaitThickness State = "await_thickness" // pergunta de espessura pendente
)

// Context é o estado de conversa de um usuário. LastViewed sobrevive
// independente do fluxo pendente e permite responder "chapa" ou
// "retalho" sem nova busca.
type Context struct {
	UserID      string
	State       State
	Materials   []materials.Material
	ByThickness map[int][]materials.Material
	LastViewed  *materials.Material
	SearchTerm  string
	UpdatedAt   time.Time
}

// AwaitingFlow indica fluxo pendente sujeito ao timeout curto.
func (c *Context) AwaitingFlow() bool {
	return c.State == StateAwaitSelection || c.State == StateAwaitThickness
}
