package bot

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/analyze"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/audio"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/dialog"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/alerts"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/users"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/report"
)

type Engine struct {
	store   *materials.Repo
	dialogs *dialog.Repo
	users   *users.Repo
	alerts  *alerts.Engine
	reports *report.Service
	log     *slog.Logger
	now     func() time.Time
}

func NewEngine(store *materials.Repo, dialogs *dialog.Repo, greeted *users.Repo,
	alertEngine *alerts.Engine, reports *report.Service, log *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		dialogs: dialogs,
		users:   greeted,
		alerts:  alertEngine,
		reports: reports,
		log:     log,
		now:     time.Now,
	}
}

// GreetIfNeeded devolve a saudação de primeiro contato. A mensagem do
// usuário não é consumida: o chamador envia a saudação e chama Answer
// em seguida com o mesmo texto.
func (e *Engine) GreetIfNeeded(userID string) (Response, bool) {
	if e.users.Greeted(userID) {
		return Response{}, false
	}
	if err := e.users.MarkGreeted(userID); err != nil {
		e.log.Error("persistir saudação", "user", userID, "err", err)
	}
	return Response{Kind: KindGreeting, Message: greetingMessage()}, true
}

// Answer processa uma mensagem de texto (ou transcrição) e devolve a
// resposta. Pânico em qualquer etapa vira mensagem genérica de erro.
func (e *Engine) Answer(userID, message string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("pânico no processamento", "user", userID, "panic", r)
			resp = Response{Kind: KindError, Message: genericErrorMessage()}
		}
	}()

	ctx := e.dialogs.Get(userID)

	// Fluxo pendente velho demais: descarta a mensagem e avisa.
	if ctx != nil && ctx.AwaitingFlow() && e.now().Sub(ctx.UpdatedAt) > dialog.FlowTTL {
		e.dialogs.Reset(userID)
		return Response{Kind: KindTimeout, Message: timeoutMessage()}
	}

	// "chapa" ou "retalho" sozinhos reaproveitam o último material
	// visto. Os dois juntos não contam como continuação.
	if ctx != nil && ctx.LastViewed != nil {
		norm := materials.Normalize(message)
		wantsSheet := strings.Contains(norm, "chapa")
		wantsOffcut := strings.Contains(norm, "retalho")
		if wantsSheet != wantsOffcut {
			kind := analyze.KindOffcut
			if wantsSheet {
				kind = analyze.KindSheet
			}
			return e.showDetails(userID, ctx.LastViewed, kind)
		}
	}

	a := analyze.Analyze(message)

	if a.Alert != nil {
		return Response{Kind: KindAlert, Message: e.alerts.Handle(a.Alert)}
	}

	if a.IsNumericSelection && ctx != nil && ctx.State == dialog.StateAwaitSelection {
		return e.resolveSelection(userID, ctx, a.Number)
	}

	if ctx != nil && ctx.State == dialog.StateAwaitThickness {
		if t, err := strconv.Atoi(strings.TrimSpace(message)); err == nil {
			return e.resolveThickness(userID, ctx, t)
		}
	}

	// Número solto sem fluxo pendente: tentativa direta por código.
	if a.IsNumericSelection {
		if m := e.store.Get(strconv.Itoa(a.Number)); m != nil {
			return e.showDetails(userID, m, analyze.KindBoth)
		}
		return Response{Kind: KindNotFound, Message: codeNotFoundMessage(a.Number)}
	}

	if a.IsReport || a.IsList || a.IsSpreadsheet {
		return e.generateDocument(a)
	}

	return e.smartSearch(userID, message, a)
}

// smartSearch é o caminho padrão: extrai termos como se a mensagem
// fosse transcrição e tenta do mais específico ao mais genérico.
func (e *Engine) smartSearch(userID, message string, a analyze.Analyzed) Response {
	terms, thickness := audio.ExtractTerms(message)
	if a.Thickness != 0 {
		thickness = a.Thickness
	}

	// "retalho 18" sem mais nada identifica os pseudo-materiais de
	// retalho avulso direto, sem busca geral.
	if a.Kind == analyze.KindOffcut && a.Color == "" {
		var code string
		switch thickness {
		case 18:
			code = materials.OffcutCode18mm
		case 6:
			code = materials.OffcutCode6mm
		}
		if code != "" {
			if m := e.store.Get(code); m != nil {
				return e.showDetails(userID, m, analyze.KindOffcut)
			}
		}
	}

	// Com outras palavras presentes, "retalho" sai da lista de termos
	// para o material de verdade ganhar a busca.
	if a.Kind == analyze.KindOffcut && a.Color != "" {
		terms = dropOffcutTerms(terms)
	}

	if len(terms) == 0 {
		return Response{Kind: KindNoMaterial, Message: noMaterialMessage()}
	}

	outcome := audio.SearchWithTerms(e.store, terms, thickness)
	if len(outcome.Found) == 0 {
		return Response{Kind: KindNotFound, Message: notFoundMessage(outcome.Terms, thickness)}
	}

	if len(outcome.Found) == 1 {
		return e.showDetails(userID, &outcome.Found[0], a.Kind)
	}

	// Espessura informada: refina para o conjunto exato antes de abrir
	// opções.
	if thickness != 0 {
		var exact []materials.Material
		for _, m := range outcome.Found {
			if m.ThicknessMm == thickness {
				exact = append(exact, m)
			}
		}
		if len(exact) == 1 {
			return e.showDetails(userID, &exact[0], a.Kind)
		}
		if len(exact) > 1 {
			return e.showOptions(userID, exact, thickness)
		}
	}

	byThickness := groupByThickness(outcome.Found)
	if len(byThickness) == 1 {
		for t, mats := range byThickness {
			if len(mats) == 1 {
				return e.showDetails(userID, &mats[0], a.Kind)
			}
			return e.showOptions(userID, mats, t)
		}
	}

	return e.askThickness(userID, outcome.Term, byThickness)
}

func (e *Engine) generateDocument(a analyze.Analyzed) Response {
	switch {
	case a.IsReport:
		if a.Color == "" && a.Thickness == 0 && a.Kind == analyze.KindBoth {
			return Response{Kind: KindReportHelp, Message: reportHelpMessage()}
		}
		res, err := e.reports.GenerateReport(report.Options{
			Color:     a.Color,
			Thickness: a.Thickness,
			Kind:      a.Kind,
		})
		if err != nil {
			e.log.Error("gerar relatório", "err", err)
			return Response{Kind: KindError, Message: "❌ Erro ao gerar o relatório. Tente novamente."}
		}
		return Response{Kind: KindReport, Message: res.Summary, Filepath: res.Filepath, Filename: res.Filename}

	case a.IsSpreadsheet:
		res, err := e.reports.GenerateSpreadsheet(a.Thickness)
		if err != nil {
			e.log.Error("gerar planilha", "err", err)
			return Response{Kind: KindError, Message: fmt.Sprintf("❌ %v", err)}
		}
		return Response{Kind: KindMaterialList, Message: res.Summary, Filepath: res.Filepath, Filename: res.Filename}

	default:
		res, err := e.reports.GenerateList(a.Thickness)
		if err != nil {
			e.log.Error("gerar lista", "err", err)
			return Response{Kind: KindError, Message: fmt.Sprintf("❌ %v", err)}
		}
		return Response{Kind: KindMaterialList, Message: res.Summary, Filepath: res.Filepath, Filename: res.Filename}
	}
}

// resolveSelection casa primeiro por código, depois por posição 1..N.
func (e *Engine) resolveSelection(userID string, ctx *dialog.Context, selection int) Response {
	if len(ctx.Materials) == 0 {
		e.dialogs.Reset(userID)
		return Response{Kind: KindError, Message: contextLostMessage()}
	}

	for i := range ctx.Materials {
		if code, err := strconv.Atoi(ctx.Materials[i].Code); err == nil && code == selection {
			return e.showDetails(userID, &ctx.Materials[i], analyze.KindBoth)
		}
	}

	idx := selection - 1
	if idx < 0 || idx >= len(ctx.Materials) {
		return Response{
			Kind:    KindError,
			Message: fmt.Sprintf("❌ Opção inválida. Por favor, escolha entre 1 e %d.", len(ctx.Materials)),
		}
	}
	return e.showDetails(userID, &ctx.Materials[idx], analyze.KindBoth)
}

func (e *Engine) resolveThickness(userID string, ctx *dialog.Context, thickness int) Response {
	if len(ctx.ByThickness) == 0 {
		e.dialogs.Reset(userID)
		return Response{Kind: KindError, Message: contextLostMessage()}
	}

	mats, ok := ctx.ByThickness[thickness]
	if !ok {
		return Response{Kind: KindError, Message: fmt.Sprintf("❌ Espessura %dmm não disponível.", thickness)}
	}
	if len(mats) == 1 {
		return e.showDetails(userID, &mats[0], analyze.KindBoth)
	}
	return e.showOptions(userID, mats, thickness)
}

func (e *Engine) showDetails(userID string, m *materials.Material, kind string) Response {
	var sheets []materials.Sheet
	var offcuts []materials.Offcut
	if kind != analyze.KindOffcut {
		sheets = e.store.Sheets(m.Code)
	}
	if kind != analyze.KindSheet {
		offcuts = e.store.Offcuts(m.Code)
	}

	mat := *m
	e.dialogs.Update(userID, func(c *dialog.Context) {
		c.State = dialog.StateIdle
		c.Materials = nil
		c.ByThickness = nil
		c.LastViewed = &mat
	})

	return Response{Kind: KindMaterialDetails, Message: detailsMessage(m, sheets, offcuts, kind)}
}

func (e *Engine) showOptions(userID string, mats []materials.Material, thickness int) Response {
	e.dialogs.Update(userID, func(c *dialog.Context) {
		c.State = dialog.StateAwaitSelection
		c.Materials = mats
		c.ByThickness = nil
	})
	return Response{Kind: KindMaterialOptions, Message: optionsMessage(mats, thickness)}
}

func (e *Engine) askThickness(userID, term string, byThickness map[int][]materials.Material) Response {
	thicknesses := make([]int, 0, len(byThickness))
	for t := range byThickness {
		thicknesses = append(thicknesses, t)
	}
	sort.Ints(thicknesses)

	e.dialogs.Update(userID, func(c *dialog.Context) {
		c.State = dialog.StateAwaitThickness
		c.ByThickness = byThickness
		c.SearchTerm = term
	})
	return Response{Kind: KindAskThickness, Message: thicknessQuestionMessage(term, thicknesses)}
}

func groupByThickness(mats []materials.Material) map[int][]materials.Material {
	out := make(map[int][]materials.Material)
	for _, m := range mats {
		out[m.ThicknessMm] = append(out[m.ThicknessMm], m)
	}
	return out
}

func dropOffcutTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		low := strings.ToLower(t)
		if strings.Contains(low, "retalho") {
			continue
		}
		out = append(out, t)
	}
	return out
}
