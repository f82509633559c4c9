package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/wolfman30/leadhunter/internal/leads"
)

const (
	pdfTitle      = "Histórico de Leads"
	pdfMargin     = 10.0
	pdfStartY     = 20.0
	pdfFontSize   = 8.0
	pdfLineHeight = 3.5
	pdfPadding    = 1.5
	idPrefixRunes = 8
	missingField  = "-"
)

// Fixed document dates keep repeated renders byte-identical.
var pdfDocumentDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	pdfHeaders    = []string{"ID", "Nome", "Instagram", "Website", "WhatsApp", "Contato", "Score"}
	pdfWidths     = []float64{20, 40, 22.5, 22.5, 22.5, 40, 22.5}
	pdfHeaderFill = [3]int{22, 163, 74}
)

// AbbreviateID returns the first eight characters of id followed by "...".
func AbbreviateID(id string) string {
	if utf8.RuneCountInString(id) > idPrefixRunes {
		id = string([]rune(id)[:idPrefixRunes])
	}
	return id + "..."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingField
	}
	return s
}

func pdfRow(l leads.Lead) []string {
	return []string{
		AbbreviateID(l.ID),
		l.Name,
		orDash(l.Instagram),
		orDash(l.Website),
		orDash(l.WhatsApp),
		l.Contact,
		strconv.Itoa(l.Score),
	}
}

// RenderPDF lays the leads out as an A4 table with seven fixed columns.
// Long values wrap inside their cell and the header repeats on each page.
func RenderPDF(rows []leads.Lead) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(pdfDocumentDate)
	pdf.SetModificationDate(pdfDocumentDate)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(pdfTitle, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - pdfMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(pdfTitle), "", 1, "L", false, 0, "")
	pdf.SetY(pdfStartY)

	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
		pdf.SetTextColor(255, 255, 255)
		drawRow(pdf, tr, pdfHeaders, true)
		pdf.SetFont("Helvetica", "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	for _, lead := range rows {
		cells := pdfRow(lead)
		if pdf.GetY()+rowHeight(pdf, tr, cells) > bottom {
			pdf.AddPage()
			header()
		}
		drawRow(pdf, tr, cells, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func rowHeight(pdf *fpdf.Fpdf, tr func(string) string, cells []string) float64 {
	maxLines := 1
	for i, cell := range cells {
		if n := len(wrapText(pdf, tr, cell, pdfWidths[i]-2*pdfPadding)); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*pdfLineHeight + 2*pdfPadding
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, fill bool) {
	height := rowHeight(pdf, tr, cells)
	x, y := pdf.GetXY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, cell := range cells {
		width := pdfWidths[i]
		pdf.Rect(x, y, width, height, style)
		lineY := y + pdfPadding
		for _, line := range wrapText(pdf, tr, cell, width-2*pdfPadding) {
			pdf.SetXY(x+pdfPadding, lineY)
			pdf.CellFormat(width-2*pdfPadding, pdfLineHeight, tr(line), "", 0, "L", false, 0, "")
			lineY += pdfLineHeight
		}
		x += width
	}
	pdf.SetXY(pdfMargin, y+height)
}

// wrapText breaks s into lines no wider than width, splitting on spaces and
// falling back to character breaks for words that do not fit on their own.
func wrapText(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) []string {
	fits := func(line string) bool { return pdf.GetStringWidth(tr(line)) <= width }

	var lines []string
	current := ""
	for _, word := range strings.Fields(s) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if fits(candidate) {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for !fits(word) {
			runes := []rune(word)
			cut := 1
			for cut < len(runes) && fits(string(runes[:cut+1])) {
				cut++
			}
			lines = append(lines, string(runes[:cut]))
			word = string(runes[cut:])
		}
		current = word
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}
