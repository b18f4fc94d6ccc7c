// Package extract implements the document content extraction engine:
// text is pulled out of PDFs, spreadsheets and plain formats, then
// scanned for monetary values, dates and a category suggestion.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// maxSummaryChars bounds the summary stored per document.
const maxSummaryChars = 500

// amountRegex matches Brazilian currency amounts like "R$ 1.234,56".
var amountRegex = regexp.MustCompile(`R\$\s*(\d{1,3}(?:\.\d{3})*,\d{2})`)

// dateRegexes match the date formats seen in fiscal documents. Order
// matters: the first match wins.
var dateRegexes = []struct {
	re     *regexp.Regexp
	layout string // index order of day, month, year in the match groups
}{
	{regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`), "dmy"},
	{regexp.MustCompile(`\b(\d{2})-(\d{2})-(\d{4})\b`), "dmy"},
	{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), "ymd"},
}

// Engine extracts text and structured hints from uploaded files.
// It implements port.Extractor.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new extraction engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Supports reports whether the engine can extract content from the
// given file type. Images need OCR and are deferred.
func (e *Engine) Supports(fileType string) bool {
	switch fileType {
	case "pdf", "xlsx", "txt", "xml":
		return true
	}
	return false
}

// Extract pulls the text out of data and derives summary, key points,
// the main monetary value, a date and a category suggestion.
func (e *Engine) Extract(ctx context.Context, fileName string, data []byte) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(fileName[strings.LastIndex(fileName, ".")+1:])

	var (
		text string
		err  error
	)
	switch ext {
	case "pdf":
		text, err = pdfText(data)
	case "xlsx":
		text, err = xlsxText(data)
	case "txt", "xml":
		text = string(data)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ext, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text content in %s", fileName)
	}

	result := analyze(text, fileName)
	e.logger.Debug("extraction complete",
		zap.String("file_name", fileName),
		zap.Int("chars", len(text)),
		zap.String("suggested_category", result.SuggestedCategory),
	)
	return result, nil
}

// pdfText extracts plain text from a PDF.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if _, err := b.ReadFrom(plain); err != nil {
		return "", err
	}
	return b.String(), nil
}

// xlsxText flattens all sheets of a workbook into tab-separated lines.
func xlsxText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// analyze derives the structured hints from extracted text.
func analyze(text, fileName string) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		Summary:           summarize(text),
		KeyPoints:         keyPoints(text),
		Value:             mainValue(text),
		Date:              firstDate(text),
		SuggestedCategory: Classify(text, fileName),
	}
	return result
}

// summarize collapses whitespace and truncates to maxSummaryChars.
// Truncation counts runes so accented text is never cut mid-character.
func summarize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if runes := []rune(collapsed); len(runes) > maxSummaryChars {
		collapsed = string(runes[:maxSummaryChars])
	}
	return collapsed
}

// keyPoints collects up to five lines that carry an amount or a date.
func keyPoints(text string) string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if amountRegex.MatchString(line) || firstDate(line) != "" {
			points = append(points, strings.Join(strings.Fields(line), " "))
			if len(points) == 5 {
				break
			}
		}
	}
	return strings.Join(points, "; ")
}

// mainValue returns the largest monetary amount found in the text,
// which for fiscal documents is almost always the total.
func mainValue(text string) *decimal.Decimal {
	matches := amountRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var best *decimal.Decimal
	for _, m := range matches {
		v, err := parseBRL(m[1])
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(*best) {
			best = &v
		}
	}
	return best
}

// parseBRL converts "1.234,56" to a decimal.
func parseBRL(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// firstDate returns the first date in the text, normalized to
// YYYY-MM-DD. Empty when no date is found.
func firstDate(text string) string {
	for _, dr := range dateRegexes {
		m := dr.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if dr.layout == "ymd" {
			return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
		}
		return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
	}
	return ""
}
