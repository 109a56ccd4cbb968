package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// OCR output spliced into page-oriented documents is wrapped in delimiters
// so downstream consumers can tell image-derived text from body text.
const (
	imageTextOpen  = "[image text]"
	imageTextClose = "[/image text]"
)

type embeddedImage struct {
	page int
	obj  int
	data []byte
}

// extractPDF extracts per-page text in page order and splices in OCR output
// for every embedded raster image. A single image's OCR failure is recorded
// in its place as an inline error note; remaining images and pages are still
// processed.
func (e *Extractor) extractPDF(ctx context.Context, content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pageTexts := make([]string, numPages)
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		pageTexts[i] = text
	}

	images := e.embeddedImages(content)
	blocks := e.ocrImages(ctx, images)
	return splicePages(pageTexts, images, blocks), nil
}

// splicePages interleaves page text with the OCR blocks of that page's
// images. Image page numbers come from a different parser than the page
// count; blocks whose page falls outside 1..len(pageTexts) (a damaged file
// the two parsers disagree on) are appended at the end rather than dropped.
func splicePages(pageTexts []string, images []embeddedImage, blocks []string) string {
	byPage := make(map[int][]int, len(images))
	var leftover []int
	for i, img := range images {
		if img.page < 1 || img.page > len(pageTexts) {
			leftover = append(leftover, i)
			continue
		}
		byPage[img.page] = append(byPage[img.page], i)
	}

	var b strings.Builder
	for i := range pageTexts {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimSpace(pageTexts[i]))
		for _, idx := range byPage[i+1] {
			b.WriteByte('\n')
			b.WriteString(blocks[idx])
		}
	}
	for _, idx := range leftover {
		b.WriteByte('\n')
		b.WriteString(blocks[idx])
	}
	return strings.TrimSpace(b.String())
}

// embeddedImages enumerates raster images in the PDF ordered by
// (page, object number). Enumeration problems degrade to text-only
// extraction; they never fail the document.
func (e *Extractor) embeddedImages(content []byte) []embeddedImage {
	if e.ocr == nil {
		return nil
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.ExtractImagesRaw(bytes.NewReader(content), nil, conf)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("embedded image enumeration failed", zap.Error(err))
		}
		return nil
	}
	var images []embeddedImage
	for _, pageImages := range pages {
		for objNr, img := range pageImages {
			data, err := io.ReadAll(img)
			if err != nil {
				if e.logger != nil {
					e.logger.Warn("embedded image read failed",
						zap.Int("page", img.PageNr), zap.Int("obj", objNr), zap.Error(err))
				}
				continue
			}
			images = append(images, embeddedImage{page: img.PageNr, obj: objNr, data: data})
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].page != images[j].page {
			return images[i].page < images[j].page
		}
		return images[i].obj < images[j].obj
	})
	return images
}

// ocrImages runs the OCR collaborator over images on a bounded worker pool.
// Results are indexed by input position so splice order stays deterministic
// no matter which calls finish first. Failures become inline error notes.
func (e *Extractor) ocrImages(ctx context.Context, images []embeddedImage) []string {
	results := make([]string, len(images))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			text, err := e.ocr.ExtractImage(ctx, images[i].data)
			if err != nil {
				results[i] = fmt.Sprintf("[image text error: %v]", err)
				return
			}
			results[i] = imageTextOpen + "\n" + strings.TrimSpace(text) + "\n" + imageTextClose
		}(i)
	}
	wg.Wait()
	return results
}
