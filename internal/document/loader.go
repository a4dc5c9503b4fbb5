package document

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LoadDir walks a folder and loads every supported guideline file into a
// Document. PDFs are validated and text-extracted, HTML is stripped to
// text, and plain text and markdown are read as-is. Files that fail to
// load are logged and skipped so one bad upload cannot poison a reindex.
func LoadDir(folder string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		text, ok, err := loadFile(path)
		if err != nil {
			log.Printf("document: skipping %s: %v", path, err)
			return nil
		}
		if !ok {
			return nil
		}
		docs = append(docs, Document{Source: path, Text: text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("document: walk %s: %w", folder, err)
	}
	return docs, nil
}

// loadFile returns the extracted text and whether the extension is
// supported at all.
func loadFile(path string) (string, bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", true, err
		}
		if err := Validate(content); err != nil {
			return "", true, err
		}
		text, err := ExtractText(content)
		return text, true, err
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return "", true, err
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return "", true, err
		}
		return strings.TrimSpace(doc.Text()), true, nil
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", true, err
		}
		return string(content), true, nil
	default:
		return "", false, nil
	}
}

// stripHTML flattens an HTML fragment to its text content.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
