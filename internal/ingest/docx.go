package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

var (
	// wpTag matches a whole <w:p>...</w:p> paragraph element, attributes included.
	wpTag = regexp.MustCompile(`(?s)<w:p(?:>|\s[^>]*>).*?</w:p>`)
	// wtTag matches <w:t>text</w:t> runs inside a paragraph, attributes included.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
)

// extractDOCX extracts paragraph text from .docx bytes in document order,
// one paragraph per line. DOCX is a ZIP containing word/document.xml (OOXML);
// text lives in <w:t> runs grouped under <w:p> paragraphs.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentXMLPath)
	}

	var b strings.Builder
	for _, para := range wpTag.FindAllString(string(docXML), -1) {
		var line strings.Builder
		for _, run := range wtTag.FindAllStringSubmatch(para, -1) {
			line.WriteString(run[1])
		}
		b.WriteString(strings.TrimSpace(line.String()))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}
