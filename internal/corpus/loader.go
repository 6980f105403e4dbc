// Package corpus loads the reference material, splits it into
// overlapping chunks and builds the vector index the assistant
// retrieves from. The index is built once per corpus and reused.
package corpus

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/halcyon0/halcyon/internal/vector"
)

// LoadPDF extracts one document per page of the PDF at path. Pages
// with no extractable text are skipped.
func LoadPDF(path string) ([]vector.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)
	var docs []vector.Document
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", pageNum, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, vector.Document{
			ID:      documentID(source, pageNum-1),
			Content: text,
			Source:  fmt.Sprintf("%s#page=%d", source, pageNum),
		})
	}
	return docs, nil
}

// LoadCSVQA reads a semicolon-delimited question/answer file. The
// first record is the header; each following row becomes one document
// rendered as a "Question:" / "Answer:" pair.
func LoadCSVQA(path string) ([]vector.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv %s: %w", path, err)
	}
	if len(records) > 0 {
		records = records[1:] // header
	}

	source := filepath.Base(path)
	var docs []vector.Document
	for i, record := range records {
		if len(record) < 2 {
			continue
		}
		question := strings.TrimSpace(record[0])
		answer := strings.TrimSpace(record[1])
		if question == "" && answer == "" {
			continue
		}

		docs = append(docs, vector.Document{
			ID:      documentID(source, i),
			Content: fmt.Sprintf("Question: %s\nAnswer: %s", question, answer),
			Source:  source,
		})
	}
	return docs, nil
}

func documentID(source string, index int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", source, index))
	return hex.EncodeToString(sum[:8])
}
