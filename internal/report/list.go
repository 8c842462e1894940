package report

import (
	"fmt"
	"path/filepath"

	"github.com/jung-kurt/gofpdf/v2"
)

// GenerateList produz a lista de materiais em PDF, duas colunas, ordem
// alfabética pt-BR. Com thickness > 0 filtra só a espessura pedida.
func (s *Service) GenerateList(thickness int) (Result, error) {
	if err := s.ensureOutDir(); err != nil {
		return Result{}, fmt.Errorf("criar diretório de relatórios: %w", err)
	}
	mats, err := s.sortedByName(thickness)
	if err != nil {
		return Result{}, err
	}

	title := "Lista de Materiais"
	suffix := ""
	if thickness != 0 {
		title = fmt.Sprintf("Lista de Materiais %dmm", thickness)
		suffix = fmt.Sprintf("-%dmm", thickness)
	}
	name := fmt.Sprintf("lista-materiais%s-%s.pdf", suffix, s.timestamp())
	path := filepath.Join(s.outDir, name)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d materiais - gerado em %s",
		len(mats), s.now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	const (
		colWidth  = 95.0
		rowHeight = 6.0
		topY      = 32.0
		bottomY   = 280.0
	)
	col := 0
	y := topY
	pdf.SetFont("Arial", "", 10)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, m := range mats {
		if y+rowHeight > bottomY {
			if col == 0 {
				col = 1
				y = topY
			} else {
				pdf.AddPage()
				col = 0
				y = topY
			}
		}
		x := 10.0 + float64(col)*colWidth
		pdf.SetXY(x, y)
		label := displayName(m.Name)
		if thickness == 0 {
			label = fmt.Sprintf("%s %dmm", label, m.ThicknessMm)
		}
		pdf.CellFormat(colWidth-5, rowHeight, tr(label), "", 0, "L", false, 0, "")
		y += rowHeight
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return Result{}, fmt.Errorf("gerar lista em PDF: %w", err)
	}

	s.log.Info("lista gerada", "arquivo", name, "materiais", len(mats))
	sum := fmt.Sprintf("📋 Lista com %d materiais", len(mats))
	return Result{Filepath: path, Filename: name, Summary: sum}, nil
}
