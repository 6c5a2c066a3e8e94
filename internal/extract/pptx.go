package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
)

var slideFileRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type pptxShape struct {
	isTitle bool
	text    strings.Builder
}

// extractPowerPoint returns one Unit per slide: body_text concatenates all
// text-box shapes with the title shape's text prepended (§4.5).
func extractPowerPoint(path string) ([]Unit, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.ExtractionError("open pptx zip container", err)
	}
	defer r.Close()

	type slideFile struct {
		number int
		file   *zip.File
	}
	var slides []slideFile
	for _, f := range r.File {
		m := slideFileRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{number: n, file: f})
	}
	if len(slides) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no slides found in %s", path), nil)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	units := make([]Unit, 0, len(slides))
	for _, sf := range slides {
		rc, err := sf.file.Open()
		if err != nil {
			return nil, errs.ExtractionError(fmt.Sprintf("open slide %d", sf.number), err)
		}
		title, body, err := parseSlideXML(rc)
		rc.Close()
		if err != nil {
			return nil, errs.ExtractionError(fmt.Sprintf("parse slide %d", sf.number), err)
		}

		full := body
		if title != "" {
			full = title + "\n" + body
		}
		full = strings.TrimSpace(full)
		if full == "" {
			continue
		}

		units = append(units, Unit{
			Kind:        KindSlide,
			Text:        full,
			SlideNumber: sf.number,
			SlideTitle:  title,
		})
	}

	if len(units) == 0 {
		return nil, errs.ExtractionError(fmt.Sprintf("no extractable text in %s", path), nil)
	}
	return units, nil
}

// parseSlideXML walks one slideN.xml, grouping <a:t> runs by enclosing
// shape and tagging the shape carrying <p:ph type="title"/> as the title.
func parseSlideXML(r io.Reader) (title string, body string, err error) {
	dec := xml.NewDecoder(r)

	var shapes []*pptxShape
	var current *pptxShape
	var bodyBuilder strings.Builder

	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return "", "", tokErr
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp", "pic", "graphicFrame":
				current = &pptxShape{}
				shapes = append(shapes, current)
			case "ph":
				if current != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "type" && a.Value == "title" {
							current.isTitle = true
						}
					}
				}
			case "t":
				var text string
				if decErr := dec.DecodeElement(&text, &el); decErr == nil && current != nil {
					current.text.WriteString(text)
				}
			}
		}
	}

	for _, shape := range shapes {
		text := strings.TrimSpace(shape.text.String())
		if text == "" {
			continue
		}
		if shape.isTitle && title == "" {
			title = text
			continue
		}
		bodyBuilder.WriteString(text)
		bodyBuilder.WriteString("\n")
	}

	return title, strings.TrimSpace(bodyBuilder.String()), nil
}
