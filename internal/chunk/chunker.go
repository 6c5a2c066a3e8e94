package chunk

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/extract"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

var rowRangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Chunk turns a file's extracted Units into Drafts, dispatching by Kind
// since each format has its own splitting rule (§4.6). A Draft missing
// required metadata for its kind is dropped and logged, never emitted.
func Chunk(units []extract.Unit, opts Options) []Draft {
	if len(units) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	var raw []Draft
	switch units[0].Kind {
	case extract.KindWord, extract.KindMarkdown:
		raw = chunkByHeaderPath(units, opts)
	case extract.KindSlide:
		raw = chunkSlides(units, opts)
	case extract.KindSheet:
		raw = chunkSheets(units, opts)
	case extract.KindPage:
		raw = chunkPages(units, opts)
	default:
		return nil
	}

	return validate(raw)
}

// chunkByHeaderPath implements Word/Markdown's rule: start a new chunk when
// header_path changes, merging consecutive units under the same path up to
// MaxChars and splitting with overlap when the merged text overflows.
func chunkByHeaderPath(units []extract.Unit, opts Options) []Draft {
	var drafts []Draft
	var buf strings.Builder
	var path []string

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		for _, piece := range splitText(buf.String(), opts.MaxChars, opts.OverlapChars) {
			drafts = append(drafts, Draft{
				Text:     piece,
				Metadata: schema.ChunkMetadata{HeaderPath: append([]string(nil), path...)},
			})
		}
		buf.Reset()
	}

	for _, u := range units {
		if !pathEqual(u.HeaderPath, path) {
			flush()
			path = u.HeaderPath
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(u.Text)
		if buf.Len() > opts.MaxChars {
			flush()
		}
	}
	flush()

	return drafts
}

// chunkSlides guarantees at least one chunk per slide, splitting a slide's
// text internally only if it overflows MaxChars.
func chunkSlides(units []extract.Unit, opts Options) []Draft {
	var drafts []Draft
	for _, u := range units {
		slide := u.SlideNumber
		title := u.SlideTitle
		for _, piece := range splitText(u.Text, opts.MaxChars, opts.OverlapChars) {
			drafts = append(drafts, Draft{
				Text: piece,
				Metadata: schema.ChunkMetadata{
					Slide: &schema.SlideLocation{SlideNumber: slide, SlideTitle: title},
				},
			})
		}
	}
	return drafts
}

// chunkSheets emits one chunk per sheet when the rendered table fits, else
// splits by an approximate row_range derived from the extractor's original
// range, dividing rows evenly across the produced pieces.
func chunkSheets(units []extract.Unit, opts Options) []Draft {
	var drafts []Draft
	for _, u := range units {
		pieces := splitText(u.Text, opts.MaxChars, opts.OverlapChars)
		if len(pieces) <= 1 {
			drafts = append(drafts, Draft{
				Text: u.Text,
				Metadata: schema.ChunkMetadata{
					Sheet: &schema.SheetLocation{SheetName: u.SheetName, RowRange: u.RowRange},
				},
			})
			continue
		}

		start, end, ok := parseRowRange(u.RowRange)
		for i, piece := range pieces {
			rowRange := u.RowRange
			if ok {
				rowRange = subRange(start, end, len(pieces), i)
			}
			drafts = append(drafts, Draft{
				Text: piece,
				Metadata: schema.ChunkMetadata{
					Sheet: &schema.SheetLocation{SheetName: u.SheetName, RowRange: rowRange},
				},
			})
		}
	}
	return drafts
}

// chunkPages guarantees at least one chunk per page, splitting internally
// only if the page's text overflows MaxChars.
func chunkPages(units []extract.Unit, opts Options) []Draft {
	var drafts []Draft
	for _, u := range units {
		page := u.Page
		for _, piece := range splitText(u.Text, opts.MaxChars, opts.OverlapChars) {
			p := page
			drafts = append(drafts, Draft{
				Text:     piece,
				Metadata: schema.ChunkMetadata{Page: &p},
			})
		}
	}
	return drafts
}

// validate drops any draft missing the metadata its kind requires, logging
// the reason rather than ever inserting an invalid chunk (§4.6).
func validate(drafts []Draft) []Draft {
	valid := make([]Draft, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.Text) == "" {
			slog.Warn("dropping empty chunk")
			continue
		}
		m := d.Metadata
		switch {
		case m.Slide != nil && m.Slide.SlideNumber <= 0:
			slog.Warn("dropping slide chunk with non-positive slide_number", "slide_number", m.Slide.SlideNumber)
			continue
		case m.Page != nil && *m.Page <= 0:
			slog.Warn("dropping page chunk with non-positive page", "page", *m.Page)
			continue
		case m.Sheet != nil && (m.Sheet.SheetName == "" || !rowRangePattern.MatchString(m.Sheet.RowRange)):
			slog.Warn("dropping sheet chunk with invalid sheet metadata", "sheet_name", m.Sheet.SheetName, "row_range", m.Sheet.RowRange)
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseRowRange(s string) (start, end int, ok bool) {
	m := rowRangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	start, errA := strconv.Atoi(m[1])
	end, errB := strconv.Atoi(m[2])
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return start, end, true
}

// subRange divides [start,end] evenly across n pieces and returns piece i's
// sub-range, clamped so no row is skipped and no range runs past end. When
// there are more pieces than rows, every piece beyond the row count reports
// the single row end-end.
func subRange(start, end, n, i int) string {
	total := end - start + 1
	if total < n {
		n = total
	}
	per := total / n
	if per < 1 {
		per = 1
	}
	rowStart := start + i*per
	rowEnd := rowStart + per - 1
	if i == n-1 || rowEnd > end {
		rowEnd = end
	}
	if rowStart > end {
		rowStart = end
	}
	return fmt.Sprintf("%d-%d", rowStart, rowEnd)
}
