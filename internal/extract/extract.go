// Package extract implements the per-format Extractors (§4.5): each
// returns a sequence of extraction Units whose shape carries the location
// metadata the Structural Chunker needs. An extractor failure never aborts
// indexing — the caller (Orchestrator) treats it as a downgrade signal for
// that one file (§4.5, §7).
package extract

import (
	"fmt"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
)

// Kind identifies which file type produced a Unit, and therefore which of
// its location fields are meaningful.
type Kind string

const (
	KindWord     Kind = "word"
	KindSlide    Kind = "slide"
	KindSheet    Kind = "sheet"
	KindPage     Kind = "page"
	KindMarkdown Kind = "markdown"
)

// Unit is one extracted span of text plus its location. Only the fields
// relevant to Kind are populated; the chunker reads them back into
// schema.ChunkMetadata (§3).
type Unit struct {
	Kind Kind
	Text string

	HeaderPath []string // Word, Markdown

	SlideNumber int // PowerPoint
	SlideTitle  string

	SheetName string // Excel
	RowRange  string

	Page int // PDF
}

// Extract dispatches to the format-specific extractor by extension.
// Extensions outside the content-indexed set (§4.4) are a programming
// error in the caller, not a data error, so they return an
// errs.ErrCodeUnsupportedFormat error.
func Extract(path, extension string) ([]Unit, error) {
	switch strings.ToLower(extension) {
	case ".docx":
		return extractWord(path)
	case ".pptx":
		return extractPowerPoint(path)
	case ".xlsx":
		return extractExcel(path)
	case ".pdf":
		return extractPDF(path)
	case ".md":
		return extractMarkdown(path)
	default:
		return nil, errs.New(errs.ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported extension %q", extension), nil)
	}
}
