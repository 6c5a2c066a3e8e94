package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
	"github.com/ledongthuc/pdf"
)

// extractPDF reads each page's plain text, skipping pages with no
// extractable text rather than emitting an empty Unit (§4.5).
func extractPDF(path string) ([]Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.ExtractionError(fmt.Sprintf("open pdf %s", path), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errs.ExtractionError(fmt.Sprintf("stat pdf %s", path), err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, errs.ExtractionError(fmt.Sprintf("parse pdf %s", path), err)
	}

	numPages := reader.NumPage()
	units := make([]Unit, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // unextractable page (image-only, malformed content stream): skip, don't fail the file
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		units = append(units, Unit{
			Kind: KindPage,
			Text: text,
			Page: i,
		})
	}

	if len(units) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no extractable text in %s", path), nil)
	}
	return units, nil
}
