package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// GenerateSpreadsheet exporta os materiais em XLSX com estoque de chapa
// base e total de retalhos por material.
func (s *Service) GenerateSpreadsheet(thickness int) (Result, error) {
	if err := s.ensureOutDir(); err != nil {
		return Result{}, fmt.Errorf("criar diretório de relatórios: %w", err)
	}
	mats, err := s.sortedByName(thickness)
	if err != nil {
		return Result{}, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"Código",
		"Material",
		"Espessura (mm)",
		"Chapas",
		"Retalhos",
		"Qtd mínima",
		"Preço",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return Result{}, fmt.Errorf("gerar planilha (cabeçalho): %w", err)
	}

	row := 2
	for _, m := range mats {
		qty, _ := s.store.BaseQty(m.Code)
		excelRow := []interface{}{
			m.Code,
			m.Name,
			m.ThicknessMm,
			qty,
			len(s.store.Offcuts(m.Code)),
			s.store.MinFor(m.Code),
			m.Price,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return Result{}, fmt.Errorf("gerar planilha (células): %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return Result{}, fmt.Errorf("gerar planilha (linhas): %w", err)
		}
		row++
	}

	suffix := ""
	if thickness != 0 {
		suffix = fmt.Sprintf("-%dmm", thickness)
	}
	name := fmt.Sprintf("planilha-materiais%s-%s.xlsx", suffix, s.timestamp())
	path := filepath.Join(s.outDir, name)

	if err := f.SaveAs(path); err != nil {
		return Result{}, fmt.Errorf("salvar planilha: %w", err)
	}

	s.log.Info("planilha gerada", "arquivo", name, "materiais", len(mats))
	sum := fmt.Sprintf("📊 Planilha com %d materiais", len(mats))
	return Result{Filepath: path, Filename: name, Summary: sum}, nil
}
