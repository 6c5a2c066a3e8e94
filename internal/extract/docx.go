package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
)

// headingStyleLevel maps a Word paragraph style ID to a heading depth
// 1-4, or 0 if the paragraph isn't a heading.
func headingStyleLevel(styleID string) int {
	lower := strings.ToLower(styleID)
	if !strings.HasPrefix(lower, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(lower, "heading"))
	if err != nil || n < 1 || n > 4 {
		return 0
	}
	return n
}

// extractWord reads word/document.xml directly from the OOXML zip
// container and walks its paragraphs, building a running header_path from
// Heading 1-4 styles (§4.5). A structured XML walk is used instead of a
// flat text dump so heading levels survive into header_path.
func extractWord(path string) ([]Unit, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.ExtractionError("open docx zip container", err)
	}
	defer r.Close()

	var docFile io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile, err = f.Open()
			if err != nil {
				return nil, errs.ExtractionError("open word/document.xml", err)
			}
			break
		}
	}
	if docFile == nil {
		return nil, errs.ExtractionError("word/document.xml not found in docx", nil)
	}
	defer docFile.Close()

	dec := xml.NewDecoder(docFile)

	var units []Unit
	var headerPath []string
	var inParagraph bool
	var paragraphText strings.Builder
	var paragraphHeadingLevel int

	flush := func() {
		text := strings.TrimSpace(paragraphText.String())
		if text == "" {
			paragraphText.Reset()
			return
		}
		if paragraphHeadingLevel > 0 {
			if paragraphHeadingLevel-1 < len(headerPath) {
				headerPath = headerPath[:paragraphHeadingLevel-1]
			}
			headerPath = append(headerPath, text)
		} else {
			units = append(units, Unit{
				Kind:       KindWord,
				Text:       text,
				HeaderPath: append([]string(nil), headerPath...),
			})
		}
		paragraphText.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.ExtractionError("parse word/document.xml", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inParagraph = true
				paragraphHeadingLevel = 0
				paragraphText.Reset()
			case "pStyle":
				for _, a := range el.Attr {
					if a.Name.Local == "val" {
						paragraphHeadingLevel = headingStyleLevel(a.Value)
					}
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err == nil && inParagraph {
					paragraphText.WriteString(text)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				flush()
				inParagraph = false
			}
		}
	}

	if len(units) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no extractable paragraphs in %s", path), nil)
	}
	return units, nil
}
