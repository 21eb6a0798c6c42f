package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cyberwithaman/digicon/internal/models"
)

const sheetName = "Batches"

var sheetHeaders = []string{"ID", "Batch ID", "Title", "Created", "Owner", "Images"}

// WriteSheet writes one row per batch to an XLSX workbook at path.
func WriteSheet(path string, batches []models.Batch, loc *time.Location) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sheet dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := EncodeSheet(out, batches, loc); err != nil {
		out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}

func EncodeSheet(w io.Writer, batches []models.Batch, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create worksheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default worksheet: %w", err)
	}

	for i, h := range sheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(sheetName, "A1", "F1", bold)
	}

	for idx, b := range batches {
		row := idx + 2

		created := ""
		if b.CreatedAt != nil {
			created = b.CreatedAt.In(loc).Format("2006-01-02 15:04")
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), b.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), b.ReferralOr(""))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), b.TitleOr(""))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), created)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), b.OwnerName())
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), len(b.Images))
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 18)
	f.SetColWidth(sheetName, "C", "C", 30)
	f.SetColWidth(sheetName, "D", "D", 18)
	f.SetColWidth(sheetName, "E", "E", 16)
	f.SetColWidth(sheetName, "F", "F", 8)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
