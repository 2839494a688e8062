// Package extractor converts raw document bytes into plain text ready for
// chunking. Dispatch is a closed set of formats keyed on the declared file
// extension; anything else is ErrUnsupportedFormat, never a best-effort guess.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"hypercare/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// SupportedExtensions lists every extension accepted at the upload boundary.
// .pptx is accepted but extracts to empty text (no slide parser wired yet).
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".xls":  true,
	".pptx": true,
}

// Extract converts document bytes plus a declared extension into plain text.
// Pure: no shared state is touched; identical input yields identical output.
func Extract(data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".txt":
		return string(data), nil
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(data)
	case ".xlsx", ".xls":
		return extractExcel(data)
	case ".pptx":
		// Accepted gap: no PowerPoint parser, document indexes as empty.
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, ext)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse pdf: %v", models.ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", models.ErrExtractionFailed, pageNum, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func extractExcel(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: open workbook: %v", models.ErrExtractionFailed, err)
	}
	defer workbook.Close()

	var sb strings.Builder
	for _, sheetName := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("%w: sheet %q: %v", models.ErrExtractionFailed, sheetName, err)
		}

		sb.WriteString(fmt.Sprintf("\n--- Sheet: %s ---\n", sheetName))
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
