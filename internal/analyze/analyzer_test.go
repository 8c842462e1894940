package analyze

import "testing"

func TestThicknessGate(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"branco 18mm", 18},
		{"branco 18 milímetros", 18},
		{"espessura 15", 15},
		{"chapa de 6", 6},
		{"noite guara 25", 25},
		{"branco 22mm", 0}, // fora do conjunto permitido
		{"material 40", 0},
		{"sem numero nenhum", 0},
	}
	for _, c := range cases {
		got := Analyze(c.in)
		if got.Thickness != c.want {
			t.Fatalf("%q: espessura %d, esperava %d", c.in, got.Thickness, c.want)
		}
	}
}

func TestKindExtraction(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"chapa branco", KindSheet},
		{"retalho branco", KindOffcut},
		{"chapa e retalho branco", KindBoth},
		{"branco 18", KindBoth},
		{"sobra de mdf cinza", KindOffcut},
	}
	for _, c := range cases {
		if got := Analyze(c.in); got.Kind != c.want {
			t.Fatalf("%q: tipo %q, esperava %q", c.in, got.Kind, c.want)
		}
	}
}

func TestNumericSelection(t *testing.T) {
	for _, in := range []string{"2", "opcao 2", "numero 2", "opção 2"} {
		got := Analyze(in)
		if !got.IsNumericSelection || got.Number != 2 {
			t.Fatalf("%q: %+v", in, got)
		}
		if got.Color != "" {
			t.Fatalf("%q: mensagem só de dígitos nunca vira cor: %q", in, got.Color)
		}
	}
	if got := Analyze("branco 2"); got.IsNumericSelection {
		t.Fatalf("texto com número não é seleção: %+v", got)
	}
}

func TestColorExtraction(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"quero chapa Branco Liso 18mm", "Branco Liso"},
		{"tem Noite Guará de 18", "Noite Guará"},
		{"18mm", ""},
	}
	for _, c := range cases {
		if got := Analyze(c.in); got.Color != c.want {
			t.Fatalf("%q: cor %q, esperava %q", c.in, got.Color, c.want)
		}
	}
}

func TestReportBeatsList(t *testing.T) {
	got := Analyze("lista relatorio branco")
	if !got.IsReport || got.IsList {
		t.Fatalf("relatório deve ganhar de lista: %+v", got)
	}
	got = Analyze("lista de materiais")
	if got.IsReport || !got.IsList {
		t.Fatalf("lista simples: %+v", got)
	}
	got = Analyze("planilha de materiais 18mm")
	if !got.IsSpreadsheet {
		t.Fatalf("planilha: %+v", got)
	}
}

func TestAlertShorthand(t *testing.T) {
	got := Analyze("1 6")
	if got.Alert == nil || got.Alert.Action != AlertNumeric {
		t.Fatalf("atalho não reconhecido: %+v", got)
	}
	if got.Alert.Option != 1 || got.Alert.Code != "6" {
		t.Fatalf("atalho: %+v", got.Alert)
	}
	// Um número só continua sendo seleção.
	if got := Analyze("2"); got.Alert != nil || !got.IsNumericSelection {
		t.Fatalf("seleção simples virou alerta: %+v", got)
	}
}

func TestAlertCommands(t *testing.T) {
	cases := []struct {
		in     string
		action AlertAction
		code   string
	}{
		{"/compra 37", AlertConfirmPurchase, "37"},
		{"/adicionar 12 branco liso", AlertAdd, "12"},
		{"/remover 37", AlertRemove, "37"},
		{"/listar alertas", AlertList, ""},
		{"/ajuda alertas", AlertHelp, ""},
		{"/estoque", AlertCheckNow, ""},
	}
	for _, c := range cases {
		got := Analyze(c.in)
		if got.Alert == nil || got.Alert.Action != c.action || got.Alert.Code != c.code {
			t.Fatalf("%q: %+v", c.in, got.Alert)
		}
	}
	if got := Analyze("/adicionar 12 branco liso"); got.Alert.Name != "branco liso" {
		t.Fatalf("nome do /adicionar: %+v", got.Alert)
	}
}

func TestAlertSetMin(t *testing.T) {
	got := Analyze("/minimo 10")
	if got.Alert == nil || got.Alert.Action != AlertSetMin || !got.Alert.Global || got.Alert.Qty != 10 {
		t.Fatalf("mínimo global: %+v", got.Alert)
	}
	got = Analyze("/minimo 37 4")
	if got.Alert == nil || got.Alert.Global || got.Alert.Code != "37" || got.Alert.Qty != 4 {
		t.Fatalf("mínimo por código: %+v", got.Alert)
	}
}

func TestUnknownSlashFallsThrough(t *testing.T) {
	got := Analyze("/qualquercoisa branco 18")
	if got.Alert != nil {
		t.Fatalf("verbo desconhecido não é comando: %+v", got.Alert)
	}
	if got.Thickness != 18 {
		t.Fatalf("análise normal deve seguir: %+v", got)
	}
}
