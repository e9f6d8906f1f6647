package services

import (
	"bytes"
	"fmt"
	"html/template"

	"tripplanner/planner"
)

var itineraryEmail = template.Must(template.New("itinerary").Funcs(template.FuncMap{
	"money": func(v int) string { return fmt.Sprintf("€%d", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Your trip to {{.Details.DestinationCity}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;color:#1a1a1a;background:#f5f7fa;margin:0}
.wrap{max-width:640px;margin:0 auto;background:#fff;padding:24px}
h1{color:#0d1825}h2{border-bottom:2px solid #d4a843;padding-bottom:4px}
.excluded{color:#999;text-decoration:line-through}
.total{background:#d4a843;color:#0d1825;font-weight:bold;padding:12px}
</style></head>
<body><div class="wrap">
<h1>Your trip to {{.Details.DestinationCity}}</h1>
<p>{{.Plan.TripDays}} days for {{.Plan.Passengers}} traveller(s){{if .Details.DepartureDate}}, departing {{.Details.DepartureDate}}{{end}}.</p>
{{with .Plan.OutboundFlight}}<h2>Flights</h2>
<p{{if not .Included}} class="excluded"{{end}}>{{.Airline}} {{.FlightNumber}}: {{.Origin}} ({{.OriginCode}}) → {{.Destination}} ({{.DestinationCode}}) on {{.Date}}, {{.DepartureTime}}–{{.ArrivalTime}}, {{money .Cost}}</p>{{end}}
{{with .Plan.ReturnFlight}}<p{{if not .Included}} class="excluded"{{end}}>{{.Airline}} {{.FlightNumber}}: {{.Origin}} ({{.OriginCode}}) → {{.Destination}} ({{.DestinationCode}}) on {{.Date}}, {{.DepartureTime}}–{{.ArrivalTime}}, {{money .Cost}}</p>{{end}}
{{with .Plan.Hotel}}<h2>Stay</h2>
<p{{if not .Included}} class="excluded"{{end}}>{{.Name}}, {{.Address}}: {{.Nights}} nights at {{money .PricePerNight}}, {{money .TotalPrice}}</p>{{end}}
{{with .Plan.CarRental}}<h2>Car rental</h2>
<p{{if not .Included}} class="excluded"{{end}}>{{.Company}} {{.VehicleName}}: {{.Days}} days at {{money .PricePerDay}}, {{money .TotalPrice}}</p>{{end}}
{{range .Plan.Itinerary}}<h2>Day {{.Day}} · {{.Label}}</h2>
<ul>{{range .Items}}
<li{{if not .Included}} class="excluded"{{end}}><strong>{{.Time}}</strong> {{.Title}}{{if .Cost}} ({{money .Cost}}){{end}}{{if .MapURL}} · <a href="{{.MapURL}}">map</a>{{end}}</li>{{end}}
</ul>{{end}}
<p class="total">Estimated total: {{money .Plan.TotalCost}}</p>
{{if .Link}}<p><a href="{{.Link}}">Open this trip online</a></p>{{end}}
<p style="font-size:11px;color:#888">Prices are estimates and subject to change. This is not a booking confirmation.</p>
</div></body></html>`))

// RenderItineraryHTML renders the e-mail body for a plan. link is optional.
func RenderItineraryHTML(plan *planner.TripPlan, details planner.TripDetails, link string) (string, error) {
	var buf bytes.Buffer
	err := itineraryEmail.Execute(&buf, struct {
		Plan    *planner.TripPlan
		Details planner.TripDetails
		Link    string
	}{plan, details, link})
	if err != nil {
		return "", fmt.Errorf("render itinerary: %w", err)
	}
	return buf.String(), nil
}
