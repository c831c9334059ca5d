// Package resume turns an uploaded resume into plain text and, with a
// language model, into a structured extract.
package resume

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for files that can be stored but not read,
// such as legacy .doc.
var ErrUnsupportedFormat = errors.New("resume: unsupported format for text extraction")

// ExtractText returns the plain text of a resume, picking the reader from
// the file extension.
func ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	case ".txt", ".tex":
		if !utf8.Valid(data) {
			return "", errors.New("resume: text file is not valid UTF-8")
		}
		return normalizeWhitespace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("resume: opening pdf: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("resume: reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("resume: reading pdf text: %w", err)
	}
	return normalizeWhitespace(buf.String()), nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// docxText reads word/document.xml out of the OOXML zip and strips markup,
// turning paragraph ends into newlines.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("resume: opening docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("resume: opening document.xml: %w", err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("resume: reading document.xml: %w", err)
		}

		doc := string(raw)
		doc = strings.ReplaceAll(doc, "</w:p>", "\n")
		doc = strings.ReplaceAll(doc, "<w:tab/>", "\t")
		doc = xmlTag.ReplaceAllString(doc, "")
		doc = xmlEntities.Replace(doc)
		return normalizeWhitespace(doc), nil
	}
	return "", errors.New("resume: docx has no word/document.xml")
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n\s*\n+`)
)

func normalizeWhitespace(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
