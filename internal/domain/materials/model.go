package materials

// Espessuras aceitas no cadastro Corte Certo (mm).
var ValidThicknesses = []int{3, 4, 6, 9, 10, 12, 15, 18, 25}

func ValidThickness(mm int) bool {
	for _, t := range ValidThicknesses {
		if t == mm {
			return true
		}
	}
	return false
}

// Pseudo-materiais reservados para retalhos avulsos.
const (
	OffcutCode18mm = "99"  // retalhos 18mm
	OffcutCode6mm  = "999" // retalhos 6mm
)

type Material struct {
	Code            string
	Name            string
	Family          string
	ThicknessMm     int
	GrainHorizontal bool
	GrainVertical   bool
	Rotatable       bool // GIRO=1: veio irrelevante, chapa rotacionável
	Price           float64
	MinQty          int // 0 = não cadastrado, vale o padrão global
}

// Sheet é uma linha da tabela CHP. A terceira coluna é sobrecarregada:
// na linha da chapa base (dimensão canônica) ela guarda a quantidade em
// estoque; nas demais, um eco do código do material. Quirk do formato
// legado, preservado como está.
type Sheet struct {
	Active      bool
	Index       int
	ThirdField  int
	HeightMm    float64
	WidthMm     float64
	Description string
}

// Faixa canônica da chapa base (2740-2747 x 1840-1847).
func (s Sheet) IsBase() bool {
	return s.HeightMm >= 2740 && s.HeightMm <= 2747 &&
		s.WidthMm >= 1840 && s.WidthMm <= 1847
}

type Offcut struct {
	Index       int
	Active      bool
	Quantity    int
	HeightMm    float64
	WidthMm     float64
	Description string
}

func (o Offcut) AreaM2() float64 {
	return o.HeightMm * o.WidthMm / 1e6
}
