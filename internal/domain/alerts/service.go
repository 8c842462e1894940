package alerts

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/analyze"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// Engine monitora materiais contra o mínimo configurado, decide os
// alertas do dia e atende os comandos administrativos. Nunca fala com
// o transporte: devolve texto pronto para o chamador enviar.
type Engine struct {
	repo  *Repo
	store *materials.Repo
	log   *slog.Logger
	now   func() time.Time
}

func NewEngine(repo *Repo, store *materials.Repo, log *slog.Logger) *Engine {
	return &Engine{repo: repo, store: store, log: log, now: time.Now}
}

type stockInfo struct {
	Code        string
	Name        string
	Quantity    int
	MinQuantity int
}

func (s stockInfo) isZero() bool     { return s.Quantity == 0 }
func (s stockInfo) belowMin() bool   { return s.Quantity < s.MinQuantity }
func (s stockInfo) atMin() bool      { return s.Quantity == s.MinQuantity }
func (s stockInfo) needsAlert() bool { return s.belowMin() || s.atMin() }

func (e *Engine) checkStock(m Monitored) stockInfo {
	qty, _ := e.store.BaseQty(m.Code)
	info := stockInfo{Code: m.Code, Name: m.Name, Quantity: qty, MinQuantity: e.store.MinFor(m.Code)}
	if mat := e.store.Get(m.Code); mat != nil {
		info.Name = mat.Name
	}
	return info
}

func formatStatus(s stockInfo) string {
	emoji, status := "🟢", "OK"
	switch {
	case s.isZero():
		emoji, status = "🔴", "ZERADO"
	case s.belowMin():
		emoji, status = "🔴", "ABAIXO DO MÍNIMO"
	case s.atMin():
		emoji, status = "🟡", "NO MÍNIMO"
	}
	return fmt.Sprintf("%s *%s*\n• Código: %s\n• Quantidade: *%d chapas*\n• Status: *%s*\n• Mínimo: %d chapas",
		emoji, s.Name, s.Code, s.Quantity, status, s.MinQuantity)
}

func (e *Engine) today() string {
	return e.now().Format("2006-01-02")
}

func (e *Engine) timestamp() string {
	return e.now().Format("02/01/2006 15:04:05")
}

// shouldSend aplica a regra de supressão: nunca com compra confirmada,
// no máximo um alerta por dia por material.
func (e *Engine) shouldSend(st State) bool {
	if st.PurchaseConfirmed {
		return false
	}
	return st.LastAlertDate != e.today()
}

// putState grava o estado e registra a falha; uma gravação perdida
// derruba a supressão diária no próximo reinício.
func (e *Engine) putState(st State) {
	if err := e.repo.PutState(st); err != nil {
		e.log.Error("gravação de estado de alerta falhou", "codigo", st.Code, "err", err)
	}
}

// CheckAndAlert varre os monitorados e monta uma única mensagem com
// todos os alertas devidos. ok=false quando não há nada para enviar.
func (e *Engine) CheckAndAlert() (message string, ok bool) {
	var due []stockInfo

	for _, m := range e.repo.Monitored() {
		if !m.Enabled {
			continue
		}
		info := e.checkStock(m)
		st := e.repo.StateFor(m.Code)
		st.CurrentQuantity = info.Quantity

		if !info.needsAlert() {
			if st.PurchaseConfirmed {
				e.log.Info("estoque normalizou, limpando compra confirmada", "codigo", m.Code)
				st.PurchaseConfirmed = false
				st.PurchaseConfirmedAt = ""
			}
			e.putState(st)
			continue
		}
		if !e.shouldSend(st) {
			e.putState(st)
			continue
		}
		st.LastAlertDate = e.today()
		e.putState(st)
		due = append(due, info)
	}

	if len(due) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString("⚠️ *ALERTA DE ESTOQUE MÍNIMO* ⚠️\n\n")
	b.WriteString("📅 " + e.timestamp() + "\n\n")
	for _, info := range due {
		b.WriteString(formatStatus(info) + "\n\n")
	}
	b.WriteString(divider + "\n\n")
	b.WriteString("📋 *OPÇÕES RÁPIDAS:*\n\n")
	b.WriteString("1️⃣ *Confirmar compra* [código]\n   Exemplo: `1 6`\n\n")
	b.WriteString("2️⃣ *Cancelar avisos* [código]\n   Exemplo: `2 6`\n\n")
	b.WriteString(divider + "\n\n")
	b.WriteString("📋 *OU USE COMANDOS:*\n\n")
	b.WriteString("`/compra [código]` - Confirmar compra\n")
	b.WriteString("`/remover [código]` - Cancelar alertas\n")
	b.WriteString("`/adicionar [código]` - Adicionar material\n")
	b.WriteString("`/listar alertas` - Ver materiais\n")
	b.WriteString("`/estoque` - Verificar agora\n")
	b.WriteString("`/ajuda alertas` - Ajuda")
	return b.String(), true
}

// Handle despacha um comando administrativo já reconhecido pelo
// analisador e devolve a resposta de chat.
func (e *Engine) Handle(cmd *analyze.AlertCommand) string {
	switch cmd.Action {
	case analyze.AlertConfirmPurchase:
		return e.ConfirmPurchase(cmd.Code)
	case analyze.AlertAdd:
		return e.AddMaterial(cmd.Code)
	case analyze.AlertRemove:
		return e.RemoveMaterial(cmd.Code)
	case analyze.AlertList:
		return e.ListMonitored()
	case analyze.AlertHelp:
		return e.Help()
	case analyze.AlertCheckNow:
		return e.CheckNow()
	case analyze.AlertSetMin:
		if cmd.Global {
			return e.ChangeGlobalMinimum(cmd.Qty)
		}
		return e.ChangeMaterialMinimum(cmd.Code, cmd.Qty)
	case analyze.AlertNumeric:
		return e.NumericResponse(cmd.Option, cmd.Code)
	}
	return "❌ Ação desconhecida."
}

func notMonitoredMsg(code string) string {
	return fmt.Sprintf("❌ Material com código *%s* não está sendo monitorado.\n\nUse `/listar alertas` para ver materiais monitorados.", code)
}

// ConfirmPurchase marca a compra e, se configurado, soma o estoque
// automaticamente reportando quantidade anterior e atual.
func (e *Engine) ConfirmPurchase(code string) string {
	m, ok := e.repo.Find(code)
	if !ok {
		return notMonitoredMsg(code)
	}

	st := e.repo.StateFor(code)
	st.PurchaseConfirmed = true
	st.PurchaseConfirmedAt = e.now().Format(time.RFC3339)
	e.putState(st)

	var b strings.Builder
	b.WriteString("✅ *Compra confirmada!*\n\n")
	b.WriteString(fmt.Sprintf("📦 Material: *%s*\n🔢 Código: %s\n📅 Data: %s\n\n", m.Name, code, e.timestamp()))

	if m.AutoAddOnBuy && m.AutoAddQuantity > 0 {
		upd, err := e.store.UpdateStockQty(code, m.AutoAddQuantity)
		if err != nil {
			e.log.Error("adição automática de estoque falhou", "codigo", code, "err", err)
			b.WriteString("⚠️ *Erro ao atualizar estoque automaticamente.*\n")
			b.WriteString(fmt.Sprintf("Por favor, adicione manualmente %d chapas.\n\n", m.AutoAddQuantity))
		} else {
			n, _ := strconv.Atoi(code)
			b.WriteString("🔄 *Estoque atualizado automaticamente!*\n\n")
			b.WriteString("📊 *Detalhes:*\n")
			b.WriteString(fmt.Sprintf("• Quantidade anterior: %d chapas\n", upd.OldQty))
			b.WriteString(fmt.Sprintf("• Adicionadas: %d chapas\n", m.AutoAddQuantity))
			b.WriteString(fmt.Sprintf("• Quantidade atual: *%d chapas*\n", upd.NewQty))
			b.WriteString(fmt.Sprintf("• Arquivo: CHP%05d.TAB\n\n", n))
		}
	} else {
		b.WriteString("⚠️ *Lembre-se de atualizar o estoque manualmente!*\n\n")
	}

	b.WriteString("Os alertas foram pausados para este material até que o estoque volte ao normal.")
	return b.String()
}

// AddMaterial exige código existente no sistema e rejeita duplicados.
// O nome vem sempre do .INI.
func (e *Engine) AddMaterial(code string) string {
	if _, ok := e.repo.Find(code); ok {
		return fmt.Sprintf("⚠️ Material com código *%s* já está sendo monitorado.\n\nUse `/listar alertas` para ver todos os materiais.", code)
	}
	mat := e.store.Get(code)
	if mat == nil {
		return fmt.Sprintf("❌ Material com código *%s* não encontrado no sistema.\n\nVerifique o código e tente novamente.", code)
	}

	m := Monitored{
		Code:    code,
		Name:    mat.Name,
		Enabled: true,
		Notes:   "Adicionar quantidade manualmente após compra",
	}
	if err := e.repo.Add(m); err != nil {
		e.log.Error("gravação de material monitorado falhou", "codigo", code, "err", err)
		return "❌ Erro ao salvar o material monitorado. Tente novamente."
	}

	return fmt.Sprintf("✅ *Material adicionado ao monitoramento!*\n\n"+
		"📦 Nome: *%s*\n🔢 Código: %s\n⚙️ Status: Ativo\n📊 Mínimo: %d chapas (do arquivo .INI)\n\n"+
		"O material será verificado diariamente.\n\n"+
		"💡 Use `/minimo %s [quantidade]` para alterar o mínimo.",
		m.Name, code, e.store.MinFor(code), code)
}

func (e *Engine) RemoveMaterial(code string) string {
	m, ok := e.repo.Remove(code)
	if !ok {
		return notMonitoredMsg(code)
	}
	return fmt.Sprintf("✅ *Material removido do monitoramento!*\n\n📦 Material: *%s*\n🔢 Código: %s\n\nOs alertas para este material foram desativados.", m.Name, code)
}

func (e *Engine) ListMonitored() string {
	monitored := e.repo.Monitored()
	if len(monitored) == 0 {
		return "📋 *MATERIAIS MONITORADOS*\n\nNenhum material está sendo monitorado no momento.\n\nUse `/adicionar [código]` para adicionar."
	}

	var b strings.Builder
	b.WriteString("📋 *MATERIAIS MONITORADOS*\n\n")
	for _, m := range monitored {
		info := e.checkStock(m)
		st := e.repo.StateFor(m.Code)

		emoji := "🟢"
		if info.isZero() || info.belowMin() {
			emoji = "🔴"
		} else if info.atMin() {
			emoji = "🟡"
		}

		b.WriteString(fmt.Sprintf("%s *%s*\n", emoji, info.Name))
		b.WriteString(fmt.Sprintf("• Código: %s\n", m.Code))
		b.WriteString(fmt.Sprintf("• Quantidade: %d chapas\n", info.Quantity))
		b.WriteString(fmt.Sprintf("• Mínimo: %d chapas (arquivo .INI)\n", info.MinQuantity))
		status := "✅ Ativo"
		if !m.Enabled {
			status = "❌ Inativo"
		}
		b.WriteString("• Status: " + status + "\n")
		if st.PurchaseConfirmed {
			when := st.PurchaseConfirmedAt
			if t, err := time.Parse(time.RFC3339, when); err == nil {
				when = t.Format("02/01/2006")
			}
			b.WriteString("• 🛒 Compra confirmada em " + when + "\n")
		}
		if m.AutoAddOnBuy {
			b.WriteString(fmt.Sprintf("• 🔄 Auto-add: %d chapas\n", m.AutoAddQuantity))
		}
		b.WriteString("\n")
	}
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("Total: %d materiais", len(monitored)))
	return b.String()
}

// ChangeGlobalMinimum mexe só no padrão em memória; some ao reiniciar.
func (e *Engine) ChangeGlobalMinimum(qty int) string {
	if qty < 0 {
		return invalidMinimumMsg()
	}
	old := e.store.DefaultMin()
	e.store.SetDefaultMin(qty)
	return fmt.Sprintf("✅ *Quantidade mínima padrão alterada!*\n\n"+
		"📊 Anterior: %d chapas\n📊 Nova: %d chapas\n\n"+
		"⚠️ *Atenção:* Esta alteração é temporária.\n"+
		"Para torná-la permanente, atualize a configuração e reinicie o servidor.\n\n"+
		"💡 *Dica:* Para alterar a quantidade mínima de um material específico, use:\n"+
		"`/minimo [código] [quantidade]`\nExemplo: `/minimo 6 15`", old, qty)
}

// ChangeMaterialMinimum grava no .INI do material; mudança permanente.
func (e *Engine) ChangeMaterialMinimum(code string, qty int) string {
	if qty < 0 {
		return invalidMinimumMsg()
	}
	m, ok := e.repo.Find(code)
	if !ok {
		return notMonitoredMsg(code)
	}
	old := e.store.MinFor(code)
	if err := e.store.UpdateMinQty(code, qty); err != nil {
		e.log.Error("gravação de mínimo no cadastro falhou", "codigo", code, "err", err)
		return "❌ Erro ao atualizar quantidade mínima no arquivo do material.\n\nVerifique os logs do servidor."
	}
	return fmt.Sprintf("✅ *Quantidade mínima alterada!*\n\n"+
		"📦 Material: *%s*\n🔢 Código: %s\n📊 Anterior: %d chapas\n📊 Nova: %d chapas\n\n"+
		"✅ Alteração salva permanentemente no arquivo .INI do material.",
		m.Name, code, old, qty)
}

func invalidMinimumMsg() string {
	return "❌ Quantidade inválida.\n\n" +
		"Use: `/minimo [quantidade]` ou `/minimo [código] [quantidade]`\n" +
		"Exemplos:\n• `/minimo 20` - Altera padrão global\n• `/minimo 6 15` - Altera apenas material 6"
}

// CheckNow lista o status de todos os monitorados na hora, ignorando a
// supressão diária.
func (e *Engine) CheckNow() string {
	monitored := e.repo.Monitored()

	var infos []stockInfo
	for _, m := range monitored {
		if !m.Enabled {
			continue
		}
		info := e.checkStock(m)
		st := e.repo.StateFor(m.Code)
		st.CurrentQuantity = info.Quantity
		e.putState(st)
		infos = append(infos, info)
	}

	if len(infos) == 0 {
		return "📋 *VERIFICAÇÃO DE ESTOQUE*\n\nNenhum material está sendo monitorado.\n\nUse `/adicionar [código]` para adicionar materiais."
	}

	var b strings.Builder
	b.WriteString("📋 *VERIFICAÇÃO DE ESTOQUE*\n\n")
	b.WriteString("📅 " + e.timestamp() + "\n\n")
	for _, info := range infos {
		b.WriteString(formatStatus(info) + "\n\n")
	}
	b.WriteString(divider + "\n\n")
	b.WriteString(fmt.Sprintf("Total: %d materiais verificados", len(infos)))
	return b.String()
}

// NumericResponse trata o atalho "1 [código]" / "2 [código]".
func (e *Engine) NumericResponse(option int, code string) string {
	if option != 1 && option != 2 {
		return fmt.Sprintf("❌ Opção *%d* inválida.\n\n"+
			"Use apenas:\n• `1 [código]` - Confirmar compra\n• `2 [código]` - Cancelar avisos\n\n"+
			"Exemplo: `1 6` ou `2 37`", option)
	}
	if _, ok := e.repo.Find(code); !ok {
		return notMonitoredMsg(code)
	}
	if option == 1 {
		return e.ConfirmPurchase(code)
	}
	return e.RemoveMaterial(code)
}

func (e *Engine) Help() string {
	var b strings.Builder
	b.WriteString("📖 *AJUDA - SISTEMA DE ALERTAS*\n\n")
	b.WriteString("O sistema monitora materiais selecionados e envia alertas diários quando o estoque fica abaixo do mínimo configurado.\n\n")
	b.WriteString(divider + "\n\n📋 *COMANDOS DISPONÍVEIS:*\n\n")
	b.WriteString("*1️⃣ Confirmar compra*\n`/compra [código]`\nConfirma que a compra foi feita e pausa os alertas até o estoque normalizar.\nExemplo: `/compra 6`\n\n")
	b.WriteString("*2️⃣ Adicionar material*\n`/adicionar [código]`\nAdiciona um novo material ao monitoramento. O nome é buscado automaticamente do arquivo .INI.\nExemplo: `/adicionar 50`\n\n")
	b.WriteString("*3️⃣ Remover material*\n`/remover [código]`\nRemove um material do monitoramento.\nExemplo: `/remover 50`\n\n")
	b.WriteString("*4️⃣ Listar materiais*\n`/listar alertas`\nMostra todos os materiais monitorados e seus estoques atuais.\n\n")
	b.WriteString("*5️⃣ Alterar mínimo*\n`/minimo [quantidade]` - Altera mínimo padrão (temporário)\n`/minimo [código] [quantidade]` - Altera mínimo de um material (PERMANENTE no .INI)\nExemplos:\n• `/minimo 20` - Mínimo padrão = 20\n• `/minimo 6 15` - Material 6 = 15 chapas (salva no arquivo M6.INI)\n\n")
	b.WriteString("*6️⃣ Verificar agora*\n`/estoque`\nVerifica o estoque de TODOS os materiais imediatamente, sem esperar o horário agendado.\n\n")
	b.WriteString("*7️⃣ Ver ajuda*\n`/ajuda alertas`\nMostra esta mensagem de ajuda.\n\n")
	b.WriteString(divider + "\n\n📊 *STATUS DOS ALERTAS:*\n")
	b.WriteString("🟢 = Estoque OK\n🟡 = Estoque no mínimo configurado\n🔴 = Estoque abaixo do mínimo ou zerado\n\n")
	b.WriteString("⏰ *HORÁRIO DE VERIFICAÇÃO:*\nOs alertas são verificados e enviados automaticamente todos os dias às 8h da manhã.\n\n")
	b.WriteString("💡 *DICA:*\nCada material pode ter sua própria quantidade mínima. Os alertas são enviados apenas uma vez por dia para cada material, até que a compra seja confirmada ou o estoque normalize.")
	return b.String()
}
