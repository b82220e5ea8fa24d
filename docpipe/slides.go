package docpipe

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SlideMarker labels the start of one slide's text in assembled output.
func SlideMarker(n int) string {
	return fmt.Sprintf("--- Slide %d ---", n)
}

// slidesExtractor handles presentations: .pptx via ppt/slides/slideN.xml,
// .odp via the ODF content walker framed per draw:page. Legacy binary .ppt
// surfaces as a recovered failure.
type slidesExtractor struct{}

func (slidesExtractor) Name() string { return "slides" }

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (slidesExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".odp") {
		return extractODP(path, filename)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		if strings.HasSuffix(lower, ".ppt") {
			return nil, fmt.Errorf("legacy .ppt format is not supported, convert %s to .pptx", filename)
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer r.Close()

	type slideFile struct {
		n int
		f *zip.File
	}
	var slides []slideFile
	for _, f := range r.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{n: n, f: f})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found in %s", filename)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		text, err := extractSlideText(s.f)
		if err != nil {
			return nil, fmt.Errorf("slide %d of %s: %w", s.n, filename, err)
		}
		parts = append(parts, SlideMarker(s.n)+"\n"+text)
	}

	content := &ExtractedContent{
		Text:             strings.Join(parts, "\n\n"),
		ProcessingMethod: MethodSlides,
	}
	content.Metadata.PageCount = len(slides)
	if props, ok := readCoreProperties(&r.Reader); ok {
		content.Metadata.Title = props.Title
		content.Metadata.Subject = props.Subject
		content.Metadata.Author = props.Creator
		content.Metadata.CreationDate = props.Created
		content.Metadata.ModificationDate = props.Modified
	}
	return content, nil
}

// extractSlideText streams one slideN.xml, one line per a:p paragraph.
func extractSlideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var lines []string
	var para strings.Builder
	var inText bool

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "br":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					lines = append(lines, text)
				}
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// extractODP frames ODF presentation content per draw:page.
func extractODP(path, filename string) (*ExtractedContent, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer r.Close()

	contentFile := findZipFile(&r.Reader, "content.xml")
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml not found in %s", filename)
	}
	rc, err := contentFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var parts []string
	var cur []string
	var para strings.Builder
	var inPara bool
	slideNr := 0

	flush := func() {
		if slideNr > 0 {
			parts = append(parts, SlideMarker(slideNr)+"\n"+strings.Join(cur, "\n"))
		}
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "page":
				flush()
				slideNr++
				cur = nil
			case "p", "h":
				if slideNr > 0 {
					inPara = true
					para.Reset()
				}
			}
		case xml.CharData:
			if inPara {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h":
				if inPara {
					inPara = false
					if text := strings.TrimSpace(para.String()); text != "" {
						cur = append(cur, text)
					}
				}
			}
		}
	}
	flush()

	if slideNr == 0 {
		return nil, fmt.Errorf("no slides found in %s", filename)
	}

	content := &ExtractedContent{
		Text:             strings.Join(parts, "\n\n"),
		ProcessingMethod: MethodSlides,
	}
	content.Metadata.PageCount = slideNr
	applyODFMeta(&r.Reader, &content.Metadata)
	return content, nil
}
