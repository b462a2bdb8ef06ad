// Package extraction calls the multimodal prescription extraction service:
// given a prescription image, the model returns a structured list of
// medicines. Results are best-effort and any field may come back empty.
package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medication-service/internal/config"
	"medication-service/internal/domain/entity"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const extractionPrompt = `Analyze this prescription image and extract ALL medicines mentioned.
Return ONLY a valid JSON array, no explanation, no markdown fences.
Required format:
[
  {
    "name": "Full medicine name with strength, e.g. Paracetamol 500mg",
    "dosage": "e.g. 1 tablet",
    "timing": ["morning", "afternoon", "evening"]
  }
]
The timing array must only use the values morning, afternoon and evening.
Omit a field when it cannot be read from the prescription.`

// Client talks to the extraction model's generateContent endpoint
type Client struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a new extraction client
func NewClient(cfg *config.ExtractionConfig, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", cfg.APIKey).
		SetTimeout(cfg.Timeout)

	return &Client{client: c, model: cfg.Model, logger: logger}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// extractedMedicine is the wire shape the model is prompted to return.
type extractedMedicine struct {
	Name   string   `json:"name"`
	Dosage string   `json:"dosage"`
	Timing []string `json:"timing"`
}

// Extract sends the prescription image to the model and parses the medicine
// list out of its reply.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) ([]*entity.Medicine, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: extractionPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("extraction status %d: %s", resp.StatusCode(), resp.String())
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("extraction returned no candidates")
	}

	medicines, err := ParseMedicines(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}

	c.logger.Info("extracted medicines from prescription", zap.Int("count", len(medicines)))
	return medicines, nil
}

// ParseMedicines parses the model's reply into medicine records. Models
// sometimes wrap the JSON in markdown fences despite instructions, so fences
// are stripped before decoding.
func ParseMedicines(reply string) ([]*entity.Medicine, error) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var extracted []extractedMedicine
	if err := json.Unmarshal([]byte(text), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse extracted medicines: %w", err)
	}

	now := time.Now().UTC()
	medicines := make([]*entity.Medicine, 0, len(extracted))
	for _, raw := range extracted {
		medicine := &entity.Medicine{
			Name:      strings.TrimSpace(raw.Name),
			Dosage:    strings.TrimSpace(raw.Dosage),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, label := range raw.Timing {
			medicine.Timing = append(medicine.Timing, entity.TimingLabel(strings.ToLower(strings.TrimSpace(label))))
		}
		medicines = append(medicines, medicine)
	}

	return medicines, nil
}
