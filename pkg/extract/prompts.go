package extract

import (
	"bytes"
	"fmt"
	"text/template"
)

// maxBodyChars bounds how much listing body text goes into the prompt.
// Vehicle listings front-load the facts; page tails are boilerplate.
const maxBodyChars = 6000

// vehicleTmpl is the vehicle listing extraction prompt template.
const vehicleTmpl = `Extract vehicle attributes from this listing page.
Respond ONLY with a JSON object matching the schema below.
Copy values exactly as they appear in the listing; do not normalize,
convert units, or guess. If a field is not present, use null.

Title: {{.Title}}

Listing text:
{{.Body}}

Schema:
{
  "vin": string | null,
  "year": string | null,
  "make": string | null,
  "model": string | null,
  "trim": string | null,
  "price": string (as listed, e.g. "$8,500") | null,
  "mileage": string (as listed, e.g. "72,450 miles") | null,
  "engine": string | null,
  "transmission": string | null,
  "color": string | null,
  "description": string (seller's description text only, no site chrome) | null,
  "image_urls": [string],
  "auction_end": string (ISO 8601) | null
}`

// extractSystemMsg pins the extractor to transcription, not interpretation.
const extractSystemMsg = `You transcribe vehicle listing attributes verbatim. ` +
	`You never invent values that are not in the text.`

// photoPrompt asks a vision model for attributes the listing text omitted.
// Only what is visible in the photos; guessing is worse than null.
const photoPrompt = `These are photos from a vehicle listing.
Respond ONLY with a JSON object matching the schema below, describing what
is visible in the photos. Use null for anything you cannot see clearly.

Schema:
{
  "color": string (exterior color, e.g. "red") | null,
  "body_style": string (e.g. "coupe", "convertible", "pickup") | null,
  "condition_notes": string (visible damage, rust, or restoration state) | null
}`

// photoSystemMsg pins the vision pass to observation only.
const photoSystemMsg = `You describe vehicle photos. ` +
	`You report only what is clearly visible, never what is likely.`

// PromptData holds the template variables for the extraction prompt.
type PromptData struct {
	Title string
	Body  string
}

var vehicleTemplate = template.Must(template.New("vehicle").Parse(vehicleTmpl))

// RenderExtractPrompt renders the vehicle extraction prompt for a listing
// page, truncating the body to keep the prompt bounded.
func RenderExtractPrompt(page Page) (string, error) {
	body := page.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	var buf bytes.Buffer
	data := PromptData{Title: page.Title, Body: body}
	if err := vehicleTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}
	return buf.String(), nil
}
