package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Relatório de Estoque</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 22px; }
h2 { font-size: 16px; margin-top: 28px; border-bottom: 1px solid #ccc; padding-bottom: 4px; }
table { border-collapse: collapse; width: 100%; margin-top: 8px; }
th, td { border: 1px solid #ccc; padding: 4px 8px; font-size: 13px; text-align: left; }
th { background: #f0f0f0; }
.meta { color: #666; font-size: 12px; }
.empty { color: #999; font-style: italic; }
</style>
</head>
<body>
<h1>Relatório de Estoque</h1>
<p class="meta">Gerado em {{.GeneratedAt}}</p>
{{range .Materials}}
<h2>{{.Material.Name}} ({{.Material.Code}}) — {{.Material.ThicknessMm}}mm</h2>
{{if .Sheets}}
<table>
<tr><th>Altura (mm)</th><th>Largura (mm)</th><th>Qtd</th><th>Descrição</th></tr>
{{range .Sheets}}<tr><td>{{.HeightMm}}</td><td>{{.WidthMm}}</td><td>{{.ThirdField}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
{{end}}
{{if .Offcuts}}
<table>
<tr><th>Altura (mm)</th><th>Largura (mm)</th><th>Qtd</th><th>Descrição</th></tr>
{{range .Offcuts}}<tr><td>{{.HeightMm}}</td><td>{{.WidthMm}}</td><td>{{.Quantity}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
{{end}}
{{if and (not .Sheets) (not .Offcuts)}}<p class="empty">Sem estoque registrado.</p>{{end}}
{{else}}
<p class="empty">Nenhum material encontrado.</p>
{{end}}
</body>
</html>
`))

type reportPage struct {
	GeneratedAt string
	Materials   []materialData
}

// GenerateReport escreve o relatório HTML em disco e devolve caminho,
// nome de arquivo e o resumo pronto para enviar no chat.
func (s *Service) GenerateReport(opts Options) (Result, error) {
	if err := s.ensureOutDir(); err != nil {
		return Result{}, fmt.Errorf("criar diretório de relatórios: %w", err)
	}
	data := s.collectData(opts)

	name := fmt.Sprintf("relatorio-estoque-%s.html", s.timestamp())
	path := filepath.Join(s.outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("criar relatório: %w", err)
	}
	defer f.Close()

	page := reportPage{
		GeneratedAt: s.now().Format("02/01/2006 15:04"),
		Materials:   data,
	}
	if err := reportTmpl.Execute(f, page); err != nil {
		return Result{}, fmt.Errorf("gerar relatório: %w", err)
	}

	s.log.Info("relatório gerado", "arquivo", name, "materiais", len(data))
	return Result{Filepath: path, Filename: name, Summary: summary(data)}, nil
}
