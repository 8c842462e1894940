// Package audio cuida do fluxo de voz: extração de termos de
// transcrições ruidosas, lote com debounce por usuário e guarda
// temporária dos áudios recebidos.
package audio

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

// Espessuras aceitas vindas de transcrição.
var audioThicknesses = map[int]bool{6: true, 9: true, 15: true, 18: true, 25: true}

// Palavras que não distinguem material em fala transcrita.
// "retalho/retalhos" fica de fora: é material específico (códigos 99 e 999).
var stopWords = map[string]bool{
	// Nomes comuns
	"demir": true, "ademir": true, "redblack": true, "red": true, "black": true,
	// Verbos e ações
	"corta": true, "cortar": true, "precisa": true, "preciso": true,
	"precisando": true, "quero": true, "tem": true, "pode": true, "ser": true,
	"fazer": true, "faz": true, "pegar": true, "buscar": true,
	"procurar": true, "estava": true, "talvez": true,
	// Medidas e dimensões
	"metro": true, "metros": true, "centimetro": true, "centimetros": true,
	"largura": true, "comprimento": true, "peca": true, "pedaco": true,
	"chapa": true,
	// Tipos genéricos de material
	"mdf": true, "mdp": true, "compensado": true, "aglomerado": true,
	"madeira": true,
	// Conectivos
	"uma": true, "de": true, "por": true, "em": true, "pra": true,
	"para": true, "com": true, "sem": true, "nao": true, "e": true,
	"ou": true, "mas": true, "se": true, "que": true, "quando": true,
	"onde": true,
	// Interjeições
	"o": true, "a": true, "ah": true, "eh": true, "ne": true, "ta": true,
	"ok": true, "certo": true,
	// Rastro do serviço de transcrição
	"transcrito": true, "transcricao": true, "blip": true, "viratexto": true,
}

var (
	markdownRe   = regexp.MustCompile(`\*\*`)
	creditLineRe = regexp.MustCompile(`(?m)--.*$`)

	thicknessMilRe     = regexp.MustCompile(`(\d+)\s*milimetros?`)
	thicknessMmRe      = regexp.MustCompile(`(\d+)\s*mm`)
	thicknessDecimalRe = regexp.MustCompile(`0[.,](\d+)`)
	thicknessBareRe    = regexp.MustCompile(`\b0?(\d+)\b(\s*metros?)?`)
	thicknessEspRe     = regexp.MustCompile(`espessura\s*(\d+)`)

	measurePairRe  = regexp.MustCompile(`\d+\s*(metros?|centimetros?|cm|m)\s*(e\s*\d+|por\s*\d+)?`)
	dimensionRe    = regexp.MustCompile(`\d+[.,]\d+\s*(x|por|de)\s*\d+[.,]?\d*`)
	numberUnitRe   = regexp.MustCompile(`\d+[.,]?\d*\s*(x|por|de|cm|mm|m)\s*\d*[.,]?\d*`)
	milimetrosRe   = regexp.MustCompile(`\d+\s*milimetros?`)
	decimalRe      = regexp.MustCompile(`0[.,]\d+`)
	floatRe        = regexp.MustCompile(`\d+[.,]\d+`)
	trailingPunctRe = regexp.MustCompile(`[,.!?;:]+$`)
)

// ExtractTerms deriva da transcrição os termos candidatos a material,
// ordenados do mais específico para o mais geral, e a espessura.
func ExtractTerms(transcription string) (terms []string, thickness int) {
	clean := markdownRe.ReplaceAllString(transcription, "")
	clean = creditLineRe.ReplaceAllString(clean, "")
	clean = strings.ReplaceAll(clean, "\n", " ")
	clean = materials.Normalize(clean)

	thickness = extractThickness(clean)
	clean = removeMeasurements(clean)
	terms = extractTerms(clean)
	return terms, thickness
}

// extractThickness tenta os padrões em ordem; o primeiro valor dentro
// do conjunto {6,9,15,18,25} ganha. 0,9 e 0,6 convertem para 9 e 6.
func extractThickness(text string) int {
	if m := thicknessMilRe.FindStringSubmatch(text); m != nil {
		if v, _ := strconv.Atoi(m[1]); audioThicknesses[v] {
			return v
		}
	}
	if m := thicknessMmRe.FindStringSubmatch(text); m != nil {
		if v, _ := strconv.Atoi(m[1]); audioThicknesses[v] {
			return v
		}
	}
	for _, m := range thicknessDecimalRe.FindAllStringSubmatch(text, -1) {
		if v, _ := strconv.Atoi(m[1]); v == 9 || v == 6 {
			return v
		}
	}
	for _, m := range thicknessBareRe.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue // "1 metro" não é espessura
		}
		if v, _ := strconv.Atoi(m[1]); audioThicknesses[v] {
			return v
		}
	}
	if m := thicknessEspRe.FindStringSubmatch(text); m != nil {
		if v, _ := strconv.Atoi(m[1]); audioThicknesses[v] {
			return v
		}
	}
	return 0
}

func removeMeasurements(text string) string {
	text = measurePairRe.ReplaceAllString(text, "")
	text = dimensionRe.ReplaceAllString(text, "")
	text = numberUnitRe.ReplaceAllString(text, "")
	text = milimetrosRe.ReplaceAllString(text, "")
	text = decimalRe.ReplaceAllString(text, "")
	text = floatRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func extractTerms(text string) []string {
	var relevant []string
	for _, w := range strings.Fields(text) {
		w = trailingPunctRe.ReplaceAllString(w, "")
		if len(w) <= 2 || stopWords[w] || isAllDigits(w) {
			continue
		}
		relevant = append(relevant, w)
	}

	var terms []string
	for _, w := range relevant {
		if len(w) > 3 {
			terms = append(terms, capitalizeWords(w))
		}
	}
	for i := 0; i+1 < len(relevant); i++ {
		terms = append(terms, capitalizeWords(relevant[i]+" "+relevant[i+1]))
	}
	for i := 0; i+2 < len(relevant); i++ {
		terms = append(terms, capitalizeWords(relevant[i]+" "+relevant[i+1]+" "+relevant[i+2]))
	}

	seen := make(map[string]bool, len(terms))
	var unique []string
	for _, t := range terms {
		if len(t) <= 3 || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}
	// Termos mais longos (mais específicos) primeiro.
	sort.SliceStable(unique, func(i, j int) bool {
		return len(unique[i]) > len(unique[j])
	})
	return unique
}

func isAllDigits(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return w != ""
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Searcher é o recorte do catálogo usado na busca por termos.
type Searcher interface {
	Search(term string, thickness int) []materials.Material
}

type SearchOutcome struct {
	Found     []materials.Material
	Term      string   // termo que acertou
	Terms     []string // tudo que foi tentado
	Thickness int
}

// SearchWithTerms tenta os termos na ordem dada e corta no primeiro que
// devolver resultado.
func SearchWithTerms(store Searcher, terms []string, thickness int) SearchOutcome {
	for _, term := range terms {
		if found := store.Search(term, thickness); len(found) > 0 {
			return SearchOutcome{Found: found, Term: term, Terms: terms, Thickness: thickness}
		}
	}
	return SearchOutcome{Terms: terms, Thickness: thickness}
}
