package materials

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/ini.v1"
)

const cacheTTL = 5 * time.Minute

var materialFileRe = regexp.MustCompile(`(?i)^M(\d+)\.INI$`)

// Repo lê e grava a base legada do Corte Certo: um .INI de cadastro por
// material e tabelas CHP/RET por código. Leituras falham para "não
// encontrado"; só as gravações devolvem erro estruturado.
type Repo struct {
	materialsDir string
	stockDir     string
	log          *slog.Logger

	mu         sync.Mutex
	cache      []Material
	cacheAt    time.Time
	defaultMin int

	now func() time.Time
}

func NewRepo(materialsDir, stockDir string, defaultMin int, log *slog.Logger) *Repo {
	return &Repo{
		materialsDir: materialsDir,
		stockDir:     stockDir,
		defaultMin:   defaultMin,
		log:          log,
		now:          time.Now,
	}
}

// DefaultMin é o mínimo global usado quando o cadastro não tem
// QTD_MIN_CHP. Alterável em memória via comando de alerta.
func (r *Repo) DefaultMin() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultMin
}

func (r *Repo) SetDefaultMin(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultMin = n
}

// ListAll enumera os cadastros, pulando arquivos ilegíveis e nomes
// vazios. Resultado fica em cache por 5 minutos. Devolve sempre uma
// cópia: o chamador pode reordenar ou filtrar sem tocar no cache.
func (r *Repo) ListAll() []Material {
	r.mu.Lock()
	if r.cache != nil && r.now().Sub(r.cacheAt) < cacheTTL {
		out := append([]Material(nil), r.cache...)
		r.mu.Unlock()
		return out
	}
	r.mu.Unlock()

	entries, err := os.ReadDir(r.materialsDir)
	if err != nil {
		r.log.Error("leitura do diretório de materiais falhou", "dir", r.materialsDir, "err", err)
		return nil
	}

	var out []Material
	for _, e := range entries {
		m := materialFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		mat, err := r.parseMaterial(filepath.Join(r.materialsDir, e.Name()), m[1])
		if err != nil {
			r.log.Warn("cadastro ignorado", "arquivo", e.Name(), "err", err)
			continue
		}
		if mat.Name == "" {
			continue
		}
		out = append(out, *mat)
	}

	r.mu.Lock()
	r.cache = out
	r.cacheAt = r.now()
	r.mu.Unlock()
	return append([]Material(nil), out...)
}

// Get devolve nil em qualquer falha de leitura ou parse.
func (r *Repo) Get(code string) *Material {
	code = strings.TrimLeft(code, "0")
	if code == "" {
		return nil
	}
	mat, err := r.parseMaterial(filepath.Join(r.materialsDir, "M"+code+".INI"), code)
	if err != nil || mat.Name == "" {
		return nil
	}
	return mat
}

func (r *Repo) parseMaterial(path, code string) (*Material, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
	if err != nil {
		return nil, err
	}
	desc := f.Section("DESC")
	fis := f.Section("PROP_FISIC")

	m := &Material{
		Code:            code,
		Name:            strings.TrimSpace(desc.Key("CAMPO1").String()),
		Family:          strings.TrimSpace(desc.Key("FAMILIA").String()),
		ThicknessMm:     int(fis.Key("ESPESSURA").MustFloat64(0)),
		GrainHorizontal: fis.Key("VEIO_HORIZONTAL").MustInt(0) == 1,
		GrainVertical:   fis.Key("VEIO_VERTICAL").MustInt(0) == 1,
		Rotatable:       fis.Key("GIRO").MustInt(0) == 1,
		Price:           f.Section("PROP_COMERC").Key("PRECO_CHAPA").MustFloat64(0),
		MinQty:          f.Section("ESTOQUE").Key("QTD_MIN_CHP").MustInt(0),
	}
	return m, nil
}

// MinFor resolve o mínimo efetivo de um código (cadastro ou padrão).
func (r *Repo) MinFor(code string) int {
	if m := r.Get(code); m != nil && m.MinQty > 0 {
		return m.MinQty
	}
	return r.DefaultMin()
}

func (r *Repo) sheetPath(code string) string {
	n, _ := strconv.Atoi(code)
	return filepath.Join(r.stockDir, fmt.Sprintf("CHP%05d.TAB", n))
}

func (r *Repo) offcutPath(code string) string {
	n, _ := strconv.Atoi(code)
	return filepath.Join(r.stockDir, fmt.Sprintf("RET%05d.TAB", n))
}

// Sheets devolve só as linhas ativas; arquivo ausente vira lista vazia.
func (r *Repo) Sheets(code string) []Sheet {
	data, err := os.ReadFile(r.sheetPath(code))
	if err != nil {
		return nil
	}
	var out []Sheet
	for _, line := range strings.Split(string(data), "\n") {
		s, ok := parseSheetLine(line)
		if ok && s.Active {
			out = append(out, s)
		}
	}
	return out
}

func parseSheetLine(line string) (Sheet, bool) {
	f := strings.Fields(line)
	if len(f) < 5 {
		return Sheet{}, false
	}
	idx, err1 := strconv.Atoi(f[1])
	third, err2 := strconv.Atoi(f[2])
	h, err3 := strconv.ParseFloat(f[3], 64)
	w, err4 := strconv.ParseFloat(f[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Sheet{}, false
	}
	return Sheet{
		Active:      f[0] == "1",
		Index:       idx,
		ThirdField:  third,
		HeightMm:    h,
		WidthMm:     w,
		Description: strings.Join(f[5:], " "),
	}, true
}

// Offcuts devolve só linhas ativas com quantidade > 0, sem ordenar
// (ordenação é apresentação).
func (r *Repo) Offcuts(code string) []Offcut {
	data, err := os.ReadFile(r.offcutPath(code))
	if err != nil {
		return nil
	}
	var out []Offcut
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Split(strings.TrimRight(line, "\r"), ",")
		if len(parts) < 5 {
			continue
		}
		idx, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		qty, err2 := strconv.Atoi(strings.TrimSpace(parts[2]))
		h, err3 := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		w, err4 := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		o := Offcut{
			Index:    idx,
			Active:   strings.TrimSpace(parts[1]) == "+",
			Quantity: qty,
			HeightMm: h,
			WidthMm:  w,
		}
		if len(parts) > 5 {
			o.Description = strings.TrimSpace(strings.Join(parts[5:], ","))
		}
		if o.Active && o.Quantity > 0 {
			out = append(out, o)
		}
	}
	return out
}

// BaseQty devolve a quantidade da chapa base e se ela existe.
func (r *Repo) BaseQty(code string) (int, bool) {
	for _, s := range r.Sheets(code) {
		if s.IsBase() {
			return s.ThirdField, true
		}
	}
	return 0, false
}

// Search faz busca por substring do nome, insensível a caixa e acento.
// thickness 0 não filtra espessura.
func (r *Repo) Search(term string, thickness int) []Material {
	nterm := Normalize(term)
	if nterm == "" {
		return nil
	}
	var out []Material
	for _, m := range r.ListAll() {
		if thickness != 0 && m.ThicknessMm != thickness {
			continue
		}
		if strings.Contains(Normalize(m.Name), nterm) {
			out = append(out, m)
		}
	}
	return out
}

// InvalidateCache derruba o cache de cadastros antes do TTL.
func (r *Repo) InvalidateCache() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}

// UpdateMinQty regrava QTD_MIN_CHP no .INI do material preservando as
// demais linhas byte a byte. Cria a seção [ESTOQUE] se não existir.
func (r *Repo) UpdateMinQty(code string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("quantidade mínima inválida: %d", qty)
	}
	code = strings.TrimLeft(code, "0")
	path := filepath.Join(r.materialsDir, "M"+code+".INI")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cadastro M%s: %w", code, err)
	}

	eol := "\r\n"
	if !strings.Contains(string(data), "\r\n") {
		eol = "\n"
	}
	lines := strings.SplitAfter(string(data), "\n")

	inEstoque := false
	replaced := false
	sectionEnd := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			if inEstoque {
				sectionEnd = i
			}
			inEstoque = strings.EqualFold(trimmed, "[ESTOQUE]")
			continue
		}
		if inEstoque && strings.HasPrefix(strings.ToUpper(trimmed), "QTD_MIN_CHP") {
			ending := ""
			if strings.HasSuffix(line, "\r\n") {
				ending = "\r\n"
			} else if strings.HasSuffix(line, "\n") {
				ending = "\n"
			}
			lines[i] = "QTD_MIN_CHP=" + strconv.Itoa(qty) + ending
			replaced = true
			break
		}
	}

	var out string
	switch {
	case replaced:
		out = strings.Join(lines, "")
	case inEstoque || sectionEnd >= 0:
		// Seção existe mas a chave não: insere no fim da seção.
		at := sectionEnd
		if at < 0 {
			at = len(lines)
		}
		var b strings.Builder
		for i, line := range lines {
			if i == at {
				b.WriteString("QTD_MIN_CHP=" + strconv.Itoa(qty) + eol)
			}
			b.WriteString(line)
		}
		if at == len(lines) {
			b.WriteString("QTD_MIN_CHP=" + strconv.Itoa(qty) + eol)
		}
		out = b.String()
	default:
		out = string(data)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += eol
		}
		out += "[ESTOQUE]" + eol + "QTD_MIN_CHP=" + strconv.Itoa(qty) + eol
	}

	if err := atomicWrite(path, []byte(out)); err != nil {
		return err
	}
	r.InvalidateCache()
	return nil
}

type StockUpdate struct {
	OldQty         int
	NewQty         int
	RecordsUpdated int
}

// UpdateStockQty soma delta à quantidade de toda linha de chapa base,
// preservando colunas e padding das demais posições. Sem chapa base,
// falha sem tocar no arquivo.
func (r *Repo) UpdateStockQty(code string, delta int) (StockUpdate, error) {
	path := r.sheetPath(code)
	data, err := os.ReadFile(path)
	if err != nil {
		return StockUpdate{}, fmt.Errorf("tabela de chapas do código %s: %w", code, err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	upd := StockUpdate{}
	first := true
	for i, line := range lines {
		body := strings.TrimRight(line, "\r\n")
		s, ok := parseSheetLine(body)
		if !ok || !s.IsBase() {
			continue
		}
		newQty := s.ThirdField + delta
		if first {
			upd.OldQty = s.ThirdField
			upd.NewQty = newQty
			first = false
		}
		lines[i] = replaceField(line, 2, strconv.Itoa(newQty))
		upd.RecordsUpdated++
	}
	if upd.RecordsUpdated == 0 {
		return upd, fmt.Errorf("código %s não tem chapa base na tabela", code)
	}

	if err := atomicWrite(path, []byte(strings.Join(lines, ""))); err != nil {
		return StockUpdate{}, err
	}
	r.InvalidateCache()
	return upd, nil
}

// replaceField troca o n-ésimo campo (0-based) de uma linha separada
// por espaços, mantendo a largura original quando o novo valor cabe.
func replaceField(line string, n int, val string) string {
	start, end := -1, -1
	field := -1
	in := false
	for i, r := range line {
		space := r == ' ' || r == '\t' || r == '\r' || r == '\n'
		if !space && !in {
			in = true
			field++
			if field == n {
				start = i
			}
		}
		if space && in {
			in = false
			if field == n {
				end = i
				break
			}
		}
	}
	if start < 0 {
		return line
	}
	if end < 0 {
		end = len(line)
	}
	if pad := (end - start) - len(val); pad > 0 {
		val = strings.Repeat(" ", pad) + val
	}
	return line[:start] + val + line[end:]
}

// atomicWrite grava via arquivo temporário + rename: ou o arquivo novo
// inteiro, ou nada.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
