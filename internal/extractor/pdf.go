package extractor

import (
	"strings"

	"github.com/dslipak/pdf"
	"github.com/rs/zerolog/log"
)

func extractPDF(path string, size int64) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		log.Warn().Err(err).Int64("size", size).Str("path", path).Msg("failed to open pdf")
		return "", nil
	}

	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Str("path", path).Msg("failed to extract pdf page text, skipping")
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
