// Package document opens the PDFs the reader pages through and reports their
// page geometry.
package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lector-reader/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// DefaultTextTimeout bounds text extraction for a single page.
const DefaultTextTimeout = 30 * time.Second

var ErrPageOutOfRange = errors.New("page out of range")

// PageSize is a page box in PDF points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metadata describes an opened document.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	PageCount int    `json:"page_count"`
}

// Source is a paginated document. Pages are 1-indexed.
type Source interface {
	Metadata() Metadata
	PageSizes() []PageSize
	Text(page int) (string, error)
	Close() error
}

// Document is a PDF opened with MuPDF.
type Document struct {
	doc         *fitz.Document
	meta        Metadata
	sizes       []PageSize
	logger      domain.Logger
	textTimeout time.Duration
}

// Open reads the page count, metadata and page boxes of the PDF at path.
func Open(path string, logger domain.Logger) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	d := &Document{
		doc:         doc,
		logger:      logger,
		textTimeout: DefaultTextTimeout,
	}

	info := doc.Metadata()
	d.meta = Metadata{
		Title:     strings.TrimSpace(info["title"]),
		Author:    strings.TrimSpace(info["author"]),
		PageCount: doc.NumPage(),
	}

	d.sizes = make([]PageSize, d.meta.PageCount)
	for i := 0; i < d.meta.PageCount; i++ {
		bound, err := doc.Bound(i)
		if err != nil {
			logger.Warn("Failed to read page box; using US Letter", "page", i+1, "error", err)
			d.sizes[i] = Letter
			continue
		}
		d.sizes[i] = PageSize{Width: float64(bound.Dx()), Height: float64(bound.Dy())}
	}

	logger.Debug("PDF opened", "path", path, "pages", d.meta.PageCount)
	return d, nil
}

func (d *Document) Metadata() Metadata { return d.meta }

func (d *Document) PageSizes() []PageSize {
	out := make([]PageSize, len(d.sizes))
	copy(out, d.sizes)
	return out
}

// Text extracts the text of page. A page that does not finish within the
// extraction timeout returns an error; the worker is drained in the background.
func (d *Document) Text(page int) (string, error) {
	if page < 1 || page > d.meta.PageCount {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, d.meta.PageCount)
	}

	type pageResult struct {
		text string
		err  error
	}
	resultCh := make(chan pageResult, 1)
	go func() {
		t, e := d.doc.Text(page - 1)
		resultCh <- pageResult{text: t, err: e}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", page, res.err)
		}
		return NormalizeText(res.text), nil
	case <-time.After(d.textTimeout):
		d.logger.Warn("PDF page extraction timeout", "page", page, "timeout_sec", int(d.textTimeout.Seconds()))
		return "", fmt.Errorf("page %d: timeout after %v", page, d.textTimeout)
	}
}

func (d *Document) Close() error {
	return d.doc.Close()
}

// Letter is the US Letter page box.
var Letter = PageSize{Width: 612, Height: 792}

// Uniform is a text-less document of identical pages. The CLI uses it when
// no file is given.
type Uniform struct {
	pages int
	size  PageSize
}

func NewUniform(pages int, size PageSize) *Uniform {
	if pages < 0 {
		pages = 0
	}
	return &Uniform{pages: pages, size: size}
}

func (u *Uniform) Metadata() Metadata { return Metadata{PageCount: u.pages} }

func (u *Uniform) PageSizes() []PageSize {
	out := make([]PageSize, u.pages)
	for i := range out {
		out[i] = u.size
	}
	return out
}

func (u *Uniform) Text(page int) (string, error) {
	if page < 1 || page > u.pages {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, u.pages)
	}
	return "", nil
}

func (u *Uniform) Close() error { return nil }

// ScaledHeights returns each page's height when drawn width units wide.
func ScaledHeights(sizes []PageSize, width float64) []float64 {
	out := make([]float64, len(sizes))
	for i, s := range sizes {
		if s.Width <= 0 {
			out[i] = width * Letter.Height / Letter.Width
			continue
		}
		out[i] = width * s.Height / s.Width
	}
	return out
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText strips control characters and collapses runs of blanks.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = controlChars.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
