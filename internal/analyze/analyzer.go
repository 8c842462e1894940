// Package analyze transforma uma mensagem crua em campos estruturados.
// Funções puras, sem acesso a disco ou rede.
package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

// Tipo de estoque pedido na mensagem.
const (
	KindSheet  = "chapa"
	KindOffcut = "retalho"
	KindBoth   = "ambos"
)

type Analyzed struct {
	Thickness          int // 0 = não identificada
	Kind               string
	Color              string
	IsNumericSelection bool
	Number             int
	IsReport           bool
	IsList             bool
	IsSpreadsheet      bool
	Alert              *AlertCommand // nil quando não é comando de alerta
}

var (
	numericOnlyRe = regexp.MustCompile(`^\d+$`)
	optionRe      = regexp.MustCompile(`^(?:opcao\s+)?(\d+)$|^numero\s+(\d+)$`)

	// Ordem importa: a primeira regra cujo primeiro match for uma
	// espessura válida ganha.
	thicknessRules = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2})\s*mm\.?`),
		regexp.MustCompile(`(\d{1,2})\s*milimetros?\.?`),
		regexp.MustCompile(`espessura\s+(\d{1,2})`),
		regexp.MustCompile(`\bde\s+(\d{1,2})(?:\s|$|\.)`),
		regexp.MustCompile(`\b(\d{1,2})(?:\s*mm)?\.?\b`),
	}
)

var sheetWords = map[string]bool{
	"chapa": true, "chapas": true, "placa": true, "placas": true,
	"inteira": true, "inteiras": true,
}

var offcutWords = map[string]bool{
	"retalho": true, "retalhos": true, "sobra": true, "sobras": true,
	"resto": true, "restos": true,
}

var reportWords = map[string]bool{
	"relatorio": true, "relatorios": true,
}

var listWords = map[string]bool{
	"lista": true, "listas": true, "listagem": true,
}

var spreadsheetWords = map[string]bool{
	"planilha": true, "excel": true, "xlsx": true,
}

// Palavras de contexto que nunca fazem parte do nome da cor.
var colorStopWords = map[string]bool{
	"chapa": true, "chapas": true, "retalho": true, "retalhos": true,
	"sobra": true, "sobras": true,
	"tem": true, "preciso": true, "quero": true, "gostaria": true,
	"inteira": true, "inteiras": true,
	"para": true, "de": true, "em": true, "com": true,
	"o": true, "a": true, "os": true, "as": true,
	"do": true, "da": true, "dos": true, "das": true,
	"no": true, "na": true, "nos": true, "nas": true,
	"por": true, "pelo": true, "pela": true, "pelos": true, "pelas": true,
}

// Analyze roda a detecção de comando de alerta primeiro; se não casar,
// segue para a análise normal de consulta.
func Analyze(raw string) Analyzed {
	if cmd := parseAlertCommand(raw); cmd != nil {
		return Analyzed{Alert: cmd}
	}

	norm := materials.Normalize(raw)
	out := Analyzed{Kind: KindBoth}

	if m := optionRe.FindStringSubmatch(norm); m != nil {
		out.IsNumericSelection = true
		n := m[1]
		if n == "" {
			n = m[2]
		}
		out.Number, _ = strconv.Atoi(n)
		return out
	}

	out.Thickness = extractThickness(norm)

	hasSheet, hasOffcut := false, false
	for _, w := range strings.Fields(norm) {
		if sheetWords[w] {
			hasSheet = true
		}
		if offcutWords[w] {
			hasOffcut = true
		}
		if reportWords[w] {
			out.IsReport = true
		}
		if listWords[w] {
			out.IsList = true
		}
		if spreadsheetWords[w] {
			out.IsSpreadsheet = true
		}
	}
	switch {
	case hasSheet && !hasOffcut:
		out.Kind = KindSheet
	case hasOffcut && !hasSheet:
		out.Kind = KindOffcut
	}
	// Relatório ganha de lista quando os dois aparecem juntos.
	if out.IsReport {
		out.IsList = false
	}

	out.Color = extractColor(raw, norm)
	return out
}

// extractThickness aceita apenas valores do conjunto permitido.
func extractThickness(norm string) int {
	for _, re := range thicknessRules {
		m := re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		n := m[1]
		if n == "" && len(m) > 2 {
			n = m[2]
		}
		v, _ := strconv.Atoi(n)
		if materials.ValidThickness(v) {
			return v
		}
	}
	return 0
}

// extractColor remove espessura, palavras de tipo e stop-words do texto
// normalizado e recompõe a cor com a caixa original da mensagem.
// Mensagem só de dígitos nunca tem cor.
func extractColor(raw, norm string) string {
	if numericOnlyRe.MatchString(norm) {
		return ""
	}

	origWords := strings.Fields(raw)
	normWords := strings.Fields(norm)
	if len(origWords) != len(normWords) {
		// Contagem de tokens divergiu; cai para o texto normalizado.
		origWords = normWords
	}

	var kept []string
	for i, w := range normWords {
		if len(w) <= 2 && !isNumericToken(w) {
			continue
		}
		if colorStopWords[w] || reportWords[w] || listWords[w] || spreadsheetWords[w] {
			continue
		}
		if isNumericToken(w) || strings.HasPrefix(w, "espessura") || strings.HasPrefix(w, "milimetro") {
			continue
		}
		kept = append(kept, origWords[i])
	}
	return strings.Join(kept, " ")
}

// isNumericToken cobre "18", "18mm", "18mm.".
func isNumericToken(w string) bool {
	w = strings.TrimSuffix(strings.TrimSuffix(w, "."), "mm")
	if w == "" {
		return false
	}
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
