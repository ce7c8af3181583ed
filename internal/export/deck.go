/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a project as a printable pitch deck.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"cinepitch/internal/domain"
	applog "cinepitch/internal/log"
	"cinepitch/internal/storage"
)

// DeckOptions controls PDF deck export. Units are points; the default page is A4 landscape.
type DeckOptions struct {
	PageWidth     float64
	PageHeight    float64
	Margin        float64
	IncludeCover  bool
	IncludeBudget bool
	Author        string
}

// DefaultDeckOptions renders a cover, every slide and the budget sheet.
func DefaultDeckOptions() DeckOptions {
	return DeckOptions{PageWidth: 842, PageHeight: 595, Margin: 36, IncludeCover: true, IncludeBudget: true}
}

func (o DeckOptions) withDefaults() DeckOptions {
	d := DefaultDeckOptions()
	if o.PageWidth <= 0 || o.PageHeight <= 0 {
		o.PageWidth, o.PageHeight = d.PageWidth, d.PageHeight
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	return o
}

type deck struct {
	pdf  *gofpdf.Fpdf
	opt  DeckOptions
	tr   func(string) string
	info domain.ProjectInfo
	log  *slog.Logger
	imgs int
}

// WriteDeckPDF renders doc as a slide deck: an optional cover page, one page per slide in deck
// order and an optional budget page. It returns the page count.
func WriteDeckPDF(w io.Writer, doc domain.Document, opt DeckOptions) (int, error) {
	opt = opt.withDefaults()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
	})
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.SetTitle(orUntitled(doc.Info.Title)+" - Pitch Deck", true)
	pdf.SetCreator("CinePitch", false)
	if author := orDefault(opt.Author, doc.Info.Director); author != "" {
		pdf.SetAuthor(author, true)
	}
	d := &deck{
		pdf:  pdf,
		opt:  opt,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		info: doc.Info,
		log:  applog.WithOperation(applog.WithComponent("export"), "deck_pdf"),
	}
	pdf.SetFooterFunc(d.footer)

	if opt.IncludeCover {
		d.cover()
	}
	for i, sl := range doc.Slides {
		d.slide(i+1, sl)
	}
	if opt.IncludeBudget && len(doc.Info.BudgetItems) > 0 {
		d.budget()
	}
	if pdf.PageCount() == 0 {
		d.cover()
	}
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("render pdf: %w", err)
	}
	pages := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	d.log.Debug("deck rendered", slog.Int("pages", pages), slog.Int("images", d.imgs))
	return pages, nil
}

// ExportDeckPDF renders the deck into path with a transactional write.
func ExportDeckPDF(path string, doc domain.Document, opt DeckOptions) (int, error) {
	var buf bytes.Buffer
	pages, err := WriteDeckPDF(&buf, doc, opt)
	if err != nil {
		return 0, err
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes(), false); err != nil {
		return 0, err
	}
	return pages, nil
}

// DeckFileName derives "<title>_Pitch_Deck.pdf".
func DeckFileName(title string) string {
	return strings.Join(strings.Fields(orUntitled(title)), "_") + "_Pitch_Deck.pdf"
}

func (d *deck) contentWidth() float64 { return d.opt.PageWidth - 2*d.opt.Margin }

func (d *deck) footer() {
	p := d.pdf
	p.SetY(-d.opt.Margin + 8)
	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(120, 120, 120)
	p.CellFormat(d.contentWidth()/2, 10, d.tr(orUntitled(d.info.Title)), "", 0, "L", false, 0, "")
	p.CellFormat(d.contentWidth()/2, 10, fmt.Sprintf("%d", p.PageNo()), "", 0, "R", false, 0, "")
}

func (d *deck) cover() {
	p := d.pdf
	p.AddPage()
	p.SetFillColor(12, 12, 14)
	p.Rect(0, 0, d.opt.PageWidth, d.opt.PageHeight, "F")
	p.SetTextColor(245, 158, 11)
	p.SetFont("Helvetica", "B", 36)
	p.SetXY(d.opt.Margin, d.opt.PageHeight/3)
	p.MultiCell(d.contentWidth(), 42, d.tr(orUntitled(d.info.Title)), "", "C", false)

	p.SetTextColor(230, 230, 230)
	p.SetFont("Helvetica", "I", 14)
	if d.info.Logline != "" {
		p.Ln(10)
		p.MultiCell(d.contentWidth(), 18, d.tr(d.info.Logline), "", "C", false)
	}
	var meta []string
	for _, v := range []string{d.info.Genre, humanize(string(d.info.ProjectType))} {
		if v != "" {
			meta = append(meta, v)
		}
	}
	if d.info.Director != "" {
		meta = append(meta, "Directed by "+d.info.Director)
	}
	if len(meta) > 0 {
		p.Ln(16)
		p.SetFont("Helvetica", "", 11)
		p.MultiCell(d.contentWidth(), 14, d.tr(strings.Join(meta, "  |  ")), "", "C", false)
	}
}

func (d *deck) slide(n int, sl domain.Slide) {
	p := d.pdf
	p.AddPage()
	m := d.opt.Margin
	p.SetTextColor(20, 20, 20)
	p.SetFont("Helvetica", "B", 22)
	p.SetXY(m, m)
	p.MultiCell(d.contentWidth(), 26, d.tr(fmt.Sprintf("%d. %s", n, orDefault(sl.Title, "Untitled slide"))), "", "L", false)
	if sl.Description != "" {
		p.SetFont("Helvetica", "I", 10)
		p.SetTextColor(110, 110, 110)
		p.MultiCell(d.contentWidth(), 13, d.tr(sl.Description), "", "L", false)
	}
	top := p.GetY() + 12
	textW := d.contentWidth()
	if sl.ImageURL != "" {
		textW = d.contentWidth() * 0.48
		boxX := m + textW + 16
		d.image(sl.ImageURL, boxX, top, d.opt.PageWidth-m-boxX, d.opt.PageHeight-m-24-top)
	}
	p.SetXY(m, top)
	p.SetFont("Helvetica", "", 12)
	p.SetTextColor(30, 30, 30)
	body := strings.TrimSpace(sl.Content)
	if body == "" {
		p.SetTextColor(150, 150, 150)
		body = orDefault(sl.Placeholder, "")
	}
	if body != "" {
		p.MultiCell(textW, 16, d.tr(body), "", "L", false)
	}
}

// image draws url into the box or, for remote or broken images, a labelled placeholder.
func (d *deck) image(url string, x, y, w, h float64) {
	p := d.pdf
	img, err := decodeDataImage(url)
	if err != nil {
		if !errors.Is(err, errNotInline) {
			d.log.Warn("slide image skipped", slog.Any("err", err))
		}
		p.SetDrawColor(180, 180, 180)
		p.Rect(x, y, w, h, "D")
		p.SetFont("Helvetica", "", 9)
		p.SetTextColor(140, 140, 140)
		p.SetXY(x+6, y+h/2-6)
		p.MultiCell(w-12, 12, d.tr(truncate(url, 120)), "", "C", false)
		return
	}
	d.imgs++
	name := fmt.Sprintf("img-%d", d.imgs)
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	p.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	fx, fy, fw, fh := fit(img.Width, img.Height, x, y, w, h)
	p.ImageOptions(name, fx, fy, fw, fh, false, opts, 0, "")
}

func (d *deck) budget() {
	p := d.pdf
	p.AddPage()
	m := d.opt.Margin
	cur := d.info.BudgetCurrency
	p.SetXY(m, m)
	p.SetTextColor(20, 20, 20)
	p.SetFont("Helvetica", "B", 22)
	p.CellFormat(d.contentWidth(), 26, d.tr("Budget Estimate"), "", 1, "L", false, 0, "")
	p.SetFont("Helvetica", "", 10)
	p.CellFormat(d.contentWidth(), 14, d.tr(fmt.Sprintf("Scale: %s  |  Currency: %s", d.info.BudgetScale, cur)), "", 1, "L", false, 0, "")
	p.Ln(8)

	cw := d.contentWidth()
	cols := []float64{cw * 0.22, cw * 0.30, cw * 0.30, cw * 0.18}
	header := []string{"Category", "Line Item", "Notes", "Cost"}
	p.SetFont("Helvetica", "B", 10)
	p.SetFillColor(235, 235, 235)
	for i, h := range header {
		align := "L"
		if i == 3 {
			align = "R"
		}
		p.CellFormat(cols[i], 18, h, "1", 0, align, true, 0, "")
	}
	p.Ln(-1)

	p.SetFont("Helvetica", "", 9)
	for _, it := range d.info.BudgetItems {
		row := []string{it.Category, it.Item, it.Notes, pdfMoney(cur, it.Cost)}
		for i, v := range row {
			align := "L"
			if i == 3 {
				align = "R"
			}
			p.CellFormat(cols[i], 16, d.tr(truncate(v, 60)), "1", 0, align, false, 0, "")
		}
		p.Ln(-1)
	}
	p.SetFont("Helvetica", "B", 10)
	p.CellFormat(cols[0]+cols[1]+cols[2], 18, "TOTAL", "1", 0, "L", true, 0, "")
	p.CellFormat(cols[3], 18, d.tr(pdfMoney(cur, domain.BudgetTotal(d.info.BudgetItems))), "1", 1, "R", true, 0, "")
}

// pdfMoney formats an amount for the core fonts, which lack the rupee sign.
func pdfMoney(c domain.Currency, v float64) string {
	return strings.Replace(domain.FormatMoney(c, v), "₹", "Rs. ", 1)
}

func humanize(enum string) string {
	words := strings.Fields(strings.ToLower(strings.ReplaceAll(enum, "_", " ")))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func orUntitled(title string) string { return orDefault(title, "Untitled Project") }

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
