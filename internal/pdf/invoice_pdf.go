package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"lexledger/internal/models"
)

// InvoiceGenerator renders DRAFT invoices to PDF under the files root.
type InvoiceGenerator struct {
	RootDir string
}

func NewInvoiceGenerator(rootDir string) *InvoiceGenerator {
	return &InvoiceGenerator{RootDir: filepath.Clean(rootDir)}
}

// Render writes the invoice document and returns its path relative to
// the files root.
func (g *InvoiceGenerator) Render(inv *models.Invoice) (string, error) {
	filename := fmt.Sprintf("invoice_%s_%s.pdf", inv.Month, inv.ClientID)
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s - %s", inv.Month, inv.ClientName), false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Billing period %s, issued %s",
		inv.Month, inv.InvoiceDate.Format("Jan 2, 2006")), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.sectionTitle(pdf, "Client")
	g.kvLine(pdf, "Name", inv.ClientName)
	g.kvLine(pdf, "Email", inv.ClientEmail)
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Billed time")
	g.kvLine(pdf, "Total hours", inv.TotalHours.String())
	g.kvLine(pdf, "Amount due", inv.TotalAmount.StringFixed(2))
	g.kvLine(pdf, "Lawyers", strings.Join(inv.LawyerIDs, ", "))
	g.kvLine(pdf, "Matters", strings.Join(inv.MatterIDs, ", "))
	g.kvLine(pdf, "Status", inv.Status)
	pdf.Ln(2)
	g.hr(pdf)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, "This invoice reflects attorney time recorded for the billing period "+
		"and is drawn against your prepaid retainer balance.", "", "L", false)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *InvoiceGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files root: %w", err)
	}
	return filepath.Join(g.RootDir, filepath.Base(filename)), nil
}

func (g *InvoiceGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func (g *InvoiceGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *InvoiceGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
