// Package scan turns a receipt image into a structured expense draft by
// calling a remote multimodal model. The draft is a suggestion for the
// user to confirm, never an auto-saved expense.
package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"pennywise/internal/core"
)

// ErrInvalidInput marks a request the client refuses to send: an empty
// image or an unsupported mime type.
var ErrInvalidInput = errors.New("invalid scan input")

// ExtractionError wraps every failure past input validation: missing key,
// transport errors, non-2xx responses, malformed model output.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("receipt extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("receipt extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Draft is the extracted suggestion. Zero totals are allowed here; the
// expense edit boundary rejects them if the user submits unchanged.
type Draft struct {
	Total    core.Money
	Category core.Category
	Date     core.Date
	Merchant string
	Items    []string
}

var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

const extractionPrompt = `Analyze this receipt image. Extract the total amount, the date, the merchant name, and a suggested category.

Categories must be one of: 'Food', 'Transport', 'Housing', 'Entertainment', 'Health', 'Education', 'Savings', 'Other'.

If the category is unclear, use 'Other'.
If the date is unclear, use today's date in YYYY-MM-DD format.
If the total is unclear, return 0.`

type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema"`
}

var responseSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"total": {"type": "NUMBER", "description": "The total amount paid."},
		"merchant": {"type": "STRING", "description": "The name of the store or merchant."},
		"date": {"type": "STRING", "description": "The date of purchase in YYYY-MM-DD format."},
		"category": {
			"type": "STRING",
			"enum": ["Food", "Transport", "Housing", "Entertainment", "Health", "Education", "Savings", "Other"],
			"description": "The category of the expense."
		},
		"items": {
			"type": "ARRAY",
			"items": {"type": "STRING"},
			"description": "List of item names found on the receipt."
		}
	},
	"required": ["total", "category"]
}`)

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type receiptPayload struct {
	Total    *float64 `json:"total"`
	Merchant string   `json:"merchant"`
	Date     string   `json:"date"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Extract sends one image to the model and normalizes the reply into a
// Draft. No retries; the caller decides whether to scan again.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) (Draft, error) {
	if len(image) == 0 {
		return Draft{}, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if !supportedMimeTypes[mimeType] {
		return Draft{}, fmt.Errorf("%w: unsupported mime type %q", ErrInvalidInput, mimeType)
	}
	if c.apiKey == "" {
		return Draft{}, &ExtractionError{Reason: "API key is missing"}
	}

	reqBody := generateRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
				{Text: extractionPrompt},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Draft{}, &ExtractionError{Reason: "encode request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Draft{}, &ExtractionError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Draft{}, &ExtractionError{Reason: "call model endpoint", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Draft{}, &ExtractionError{Reason: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Draft{}, &ExtractionError{Reason: fmt.Sprintf("model endpoint returned %d", resp.StatusCode)}
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return Draft{}, &ExtractionError{Reason: "decode response envelope", Err: err}
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return Draft{}, &ExtractionError{Reason: "model returned no candidates"}
	}
	text := gen.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return Draft{}, &ExtractionError{Reason: "model returned empty text"}
	}

	var payload receiptPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return Draft{}, &ExtractionError{Reason: "decode receipt payload", Err: err}
	}

	return normalize(payload), nil
}

// normalize maps whatever the model produced onto the closed domain:
// unknown category becomes Other, absent or negative totals become zero,
// an unparseable date becomes today.
func normalize(p receiptPayload) Draft {
	var cents int64
	if p.Total != nil && *p.Total > 0 {
		cents = int64(math.Round(*p.Total * 100))
	}

	date, err := core.ParseDate(p.Date)
	if err != nil {
		date = core.DateOf(time.Now())
	}

	return Draft{
		Total:    core.Money{Cents: cents},
		Category: core.NormalizeCategory(p.Category),
		Date:     date,
		Merchant: p.Merchant,
		Items:    p.Items,
	}
}
