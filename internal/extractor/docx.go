package extractor

import (
	"encoding/xml"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return stripDocxXML(content), nil
}

// stripDocxXML pulls the plain-text runs out of a document.xml payload,
// inserting a newline at each paragraph boundary.
func stripDocxXML(xmlContent string) string {
	decoder := xml.NewDecoder(strings.NewReader(xmlContent))
	var b strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
