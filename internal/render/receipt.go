// Package render turns expense records into downloadable documents and images.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
)

// ErrNoData is returned when there is nothing to render.
var ErrNoData = errors.New("nothing to render")

const (
	receiptWidth  = 80.0 // mm, thermal roll
	receiptMargin = 5.0
	receiptLine   = 5.0
	maxLabelRunes = 15
)

// ReceiptPDF renders expenses as a thermal-printer style receipt.
func ReceiptPDF(owner string, expenses []core.Expense, now time.Time) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNoData
	}

	height := 120 + float64(len(expenses))*receiptLine
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: receiptWidth, Ht: height},
	})
	pdf.SetMargins(receiptMargin, receiptMargin, receiptMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	right := receiptWidth - receiptMargin
	centered := func(text string, y, size float64, style string) {
		pdf.SetFont("Courier", style, size)
		text = tr(text)
		pdf.Text((receiptWidth-pdf.GetStringWidth(text))/2, y, text)
	}
	rightAligned := func(text string, y float64) {
		pdf.Text(right-pdf.GetStringWidth(text), y, text)
	}
	dashed := func(y float64) {
		pdf.SetDashPattern([]float64{1, 1}, 0)
		pdf.Line(receiptMargin, y, right, y)
		pdf.SetDashPattern([]float64{}, 0)
	}
	stars := strings.Repeat("*", 32)

	y := 15.0
	centered("BUDGET TRACKER", y, 12, "B")
	y += 5
	if owner != "" {
		centered("User: "+owner, y, 8, "")
		y += 5
	}
	centered(now.UTC().Format("2006-01-02 15:04"), y, 8, "")
	y += 8
	centered(stars, y, 8, "")
	y += 5
	centered("CASH RECEIPT", y, 14, "B")
	y += 5
	centered(stars, y, 8, "")
	y += 10

	pdf.SetFont("Courier", "B", 9)
	pdf.Text(receiptMargin, y, "Description")
	rightAligned("Price", y)
	y += 3
	dashed(y)
	y += 5

	var total core.Money
	pdf.SetFont("Courier", "", 9)
	for _, e := range expenses {
		pdf.Text(receiptMargin, y, tr(truncate(e.Category, maxLabelRunes)))
		rightAligned(e.Amount.Plain(), y)
		total = total.Add(e.Amount)
		y += receiptLine
	}

	y += 2
	dashed(y)
	y += 6
	pdf.SetFont("Courier", "B", 14)
	pdf.Text(receiptMargin, y, "Total")
	rightAligned(total.String(), y)

	y += 10
	pdf.SetFont("Courier", "", 8)
	pdf.Text(receiptMargin, y, "Cash")
	rightAligned(total.Plain(), y)
	y += 4
	pdf.Text(receiptMargin, y, "Change")
	rightAligned("0.00", y)

	y += 8
	centered(stars, y, 8, "")
	y += 5
	centered("THANK YOU!", y, 10, "B")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + ".."
}
