package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"tripplanner/planner"
)

// GeneratePlanPDF renders a plan as an A4 document and returns raw bytes.
// When link is set a QR code pointing at the saved trip is printed in the
// header.
func GeneratePlanPDF(plan *planner.TripPlan, details planner.TripDetails, link string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Footer ────────────────────────────────────────────────
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Not a booking confirmation · Prices subject to change · Page %d", pdf.PageNo())),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(120, 10, tr("Trip to "+details.DestinationCity), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(120, 6, tr(fmt.Sprintf("%d days · %d traveller(s)", plan.TripDays, plan.Passengers)), "", 1, "L", false, 0, "")

	if link != "" {
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("trip-qr", opt, bytes.NewReader(png))
		pdf.ImageOptions("trip-qr", 182, 2, 24, 24, false, opt, 0, link)
	}

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	disclaimer := "This is NOT a booking confirmation. Prices are estimates and subject to change."
	if plan.Source == planner.SourceEstimated {
		disclaimer = "ESTIMATED CONTENT: attraction data was unavailable, so sample activities are shown. " + disclaimer
	}
	pdf.MultiCell(164, 4, disclaimer, "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string, included bool) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		style := "B"
		if !included {
			pdf.SetTextColor(160, 160, 160)
			style = "I"
			value += " (excluded)"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(115, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	origin := details.DepartureCity
	if origin == "" {
		origin = "Home"
	}
	row("Route", fmt.Sprintf("%s -> %s -> %s", origin, details.DestinationCity, origin), true)
	if len(plan.Itinerary) > 0 {
		row("Departure", fmtDateReadable(plan.Itinerary[0].Date), true)
		row("Return", fmtDateReadable(plan.Itinerary[len(plan.Itinerary)-1].Date), true)
	}
	row("Generated", time.Now().UTC().Format("02 Jan 2006, 15:04 UTC"), true)
	pdf.Ln(4)

	// ── Flights ───────────────────────────────────────────────
	if plan.OutboundFlight != nil || plan.ReturnFlight != nil {
		sectionHeader("Flights")
		for _, f := range []*planner.Flight{plan.OutboundFlight, plan.ReturnFlight} {
			if f == nil {
				continue
			}
			row(f.Airline+" "+f.FlightNumber,
				fmt.Sprintf("%s %s-%s  %s -> %s  €%d", f.Date, f.DepartureTime, f.ArrivalTime, f.OriginCode, f.DestinationCode, f.Cost),
				f.Included)
		}
		pdf.Ln(4)
	}

	// ── Stay & Car ────────────────────────────────────────────
	if h := plan.Hotel; h != nil {
		sectionHeader("Hotel")
		row(h.Name, fmt.Sprintf("€%d/night × %d nights = €%d", h.PricePerNight, h.Nights, h.TotalPrice), h.Included)
		pdf.Ln(4)
	}
	if c := plan.CarRental; c != nil {
		sectionHeader("Car Rental")
		row(c.Company, fmt.Sprintf("%s, €%d/day × %d days = €%d", c.VehicleName, c.PricePerDay, c.Days, c.TotalPrice), c.Included)
		pdf.Ln(4)
	}

	// ── Itinerary ─────────────────────────────────────────────
	for _, day := range plan.Itinerary {
		sectionHeader(fmt.Sprintf("Day %d · %s", day.Day, day.Label))
		for _, item := range day.Items {
			value := item.Title
			if item.Cost > 0 {
				value += fmt.Sprintf("  €%d", item.Cost)
			}
			row(item.Time, value, item.Included)
		}
		pdf.Ln(3)
	}

	// ── Cost Summary ──────────────────────────────────────────
	pdf.SetFillColor(212, 168, 67)
	pdf.SetTextColor(13, 24, 37)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, "TOTAL ESTIMATE", "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, tr(fmt.Sprintf("€%d", plan.TotalCost)), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}
