package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"hypercare/internal/models"
)

// A .docx file is a ZIP archive; the visible text lives in word/document.xml
// as paragraphs of runs of text elements.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx archive: %v", models.ErrExtractionFailed, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open document.xml: %v", models.ErrExtractionFailed, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: read document.xml: %v", models.ErrExtractionFailed, err)
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("%w: parse document.xml: %v", models.ErrExtractionFailed, err)
		}

		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					sb.WriteString(text.Content)
				}
			}
		}
		return sb.String(), nil
	}

	return "", fmt.Errorf("%w: docx has no word/document.xml", models.ErrExtractionFailed)
}
