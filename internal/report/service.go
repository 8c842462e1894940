// Package report transforma o resultado das consultas em documentos:
// relatório HTML de estoque, lista de materiais em PDF e planilha XLSX.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

// Limite do relatório geral para não travar a geração.
const generalCap = 50

type Options struct {
	MaterialCode string
	Color        string
	Thickness    int
	Kind         string // chapa, retalho ou ambos
}

type Result struct {
	Filepath string
	Filename string
	Summary  string
}

type materialData struct {
	Material materials.Material
	Sheets   []materials.Sheet
	Offcuts  []materials.Offcut
}

type Service struct {
	store  *materials.Repo
	outDir string
	log    *slog.Logger
	now    func() time.Time
}

func NewService(store *materials.Repo, outDir string, log *slog.Logger) *Service {
	return &Service{store: store, outDir: outDir, log: log, now: time.Now}
}

func (s *Service) ensureOutDir() error {
	return os.MkdirAll(s.outDir, 0o755)
}

// collectData resolve os materiais do relatório conforme o pedido:
// código específico, cor, espessura ou geral (limitado).
func (s *Service) collectData(opts Options) []materialData {
	var mats []materials.Material
	switch {
	case opts.MaterialCode != "":
		if m := s.store.Get(opts.MaterialCode); m != nil {
			mats = []materials.Material{*m}
		}
	case opts.Color != "":
		mats = s.store.Search(opts.Color, opts.Thickness)
	case opts.Thickness != 0:
		for _, m := range s.store.ListAll() {
			if m.ThicknessMm == opts.Thickness {
				mats = append(mats, m)
			}
		}
	default:
		mats = s.store.ListAll()
		if len(mats) > generalCap {
			mats = mats[:generalCap]
		}
	}

	data := make([]materialData, 0, len(mats))
	for _, m := range mats {
		d := materialData{Material: m}
		if opts.Kind != "retalho" {
			d.Sheets = s.store.Sheets(m.Code)
		}
		if opts.Kind != "chapa" {
			d.Offcuts = s.store.Offcuts(m.Code)
		}
		data = append(data, d)
	}
	return data
}

// summary totaliza materiais, chapas e retalhos. A soma de chapas
// percorre a terceira coluna de todas as linhas, como o sistema legado
// sempre reportou.
func summary(data []materialData) string {
	totalSheets, totalOffcuts := 0, 0
	for _, d := range data {
		for _, sh := range d.Sheets {
			totalSheets += sh.ThirdField
		}
		totalOffcuts += len(d.Offcuts)
	}
	return fmt.Sprintf("📊 *Resumo:*\n• %d materiais\n• %d chapas\n• %d retalhos",
		len(data), totalSheets, totalOffcuts)
}

func (s *Service) timestamp() string {
	// Formato de nome de arquivo: sem dois-pontos.
	return strings.ReplaceAll(s.now().Format("2006-01-02T15-04-05"), ":", "-")
}

// ptBRCollator ordena como o usuário espera em português, com números
// em ordem natural.
func ptBRCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.Numeric, collate.IgnoreCase)
}

// sortedByName devolve os materiais em ordem alfabética pt-BR.
func (s *Service) sortedByName(thickness int) ([]materials.Material, error) {
	mats := s.store.ListAll()
	if len(mats) == 0 {
		return nil, fmt.Errorf("nenhum material encontrado no banco de dados")
	}
	if thickness != 0 {
		var filtered []materials.Material
		for _, m := range mats {
			if m.ThicknessMm == thickness {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) == 0 {
			return nil, fmt.Errorf("nenhum material encontrado com espessura %dmm", thickness)
		}
		mats = filtered
	}

	c := ptBRCollator()
	for i := 1; i < len(mats); i++ {
		for j := i; j > 0 && c.CompareString(mats[j].Name, mats[j-1].Name) < 0; j-- {
			mats[j], mats[j-1] = mats[j-1], mats[j]
		}
	}
	return mats, nil
}

// displayName tira o "MDF" do nome para a listagem ficar limpa.
func displayName(name string) string {
	fields := strings.Fields(name)
	var out []string
	for _, f := range fields {
		if strings.EqualFold(f, "MDF") {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
