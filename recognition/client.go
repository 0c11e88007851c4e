// recognition/client.go
package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/franckwan/foodlog/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-pro"
)

// Generation settings sent with every request. The low temperature keeps the
// structured output stable when the same photo is resubmitted.
const (
	genTemperature     = 0.4
	genTopK            = 32
	genTopP            = 1.0
	genMaxOutputTokens = 2048
)

const foodPrompt = `Identify the food items visible in this photo. For each item provide:
1. The food's name
2. Calories per serving
3. Protein content (g)
4. Carbohydrate content (g)
5. Fat content (g)

Respond with JSON in exactly this format:
[
  {
    "name": "food name",
    "calories": 100,
    "protein": 10,
    "carbs": 20,
    "fat": 5
  }
]

Return only the JSON data, no other explanation. If no food is recognizable, return an empty array [].`

// Config is the construction-time configuration for a Client. APIKey is
// required; everything else has a sensible default.
type Config struct {
	APIKey     string
	Model      string       // defaults to gemini-1.5-pro
	BaseURL    string       // defaults to the public Generative Language endpoint
	HTTPClient *http.Client // defaults to a client with a 60s timeout
	Logger     *zap.Logger
}

// Client submits single-image recognition requests to a remote multimodal
// model and parses the structured food list out of its reply. It holds no
// mutable state; one Client may serve many flows.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		logger:     logger,
	}
}

// Gemini generateContent wire types.
type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
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

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// foodPayload is one item of the JSON array the model is instructed to emit.
// Calories is a pointer so a missing field can be told apart from zero.
type foodPayload struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

// Recognize submits one JPEG image and returns the foods the model saw. An
// empty slice is a valid answer meaning no food was recognized. The call is
// cancellable through ctx; a result arriving after cancellation is discarded.
// Recognize never retries; resubmitting the image is the caller's decision.
func (c *Client) Recognize(ctx context.Context, imageData []byte) ([]models.RecognizedFood, error) {
	reqBody := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: foodPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     genTemperature,
			TopK:            genTopK,
			TopP:            genTopP,
			MaxOutputTokens: genMaxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation is not a transport fault; keep it detectable.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &TransportError{Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var envelope generateContentResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &MalformedError{Raw: string(raw)}
	}

	// No candidates means the model had nothing to report.
	text := "[]"
	if len(envelope.Candidates) > 0 && len(envelope.Candidates[0].Content.Parts) > 0 {
		text = envelope.Candidates[0].Content.Parts[0].Text
	}

	foods, err := parseFoodList(text)
	if err != nil {
		return nil, err
	}

	// The user may have abandoned the flow while the request was in
	// flight; never hand back a result that should be discarded.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("food recognition finished", zap.Int("items", len(foods)))
	return foods, nil
}

// stripFences removes the markdown code fences the model sometimes wraps
// around its JSON payload.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func parseFoodList(text string) ([]models.RecognizedFood, error) {
	var items []foodPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &items); err != nil {
		return nil, &MalformedError{Raw: text}
	}

	foods := make([]models.RecognizedFood, 0, len(items))
	for _, it := range items {
		if it.Name == "" || it.Calories == nil || *it.Calories < 0 {
			return nil, &MalformedError{Raw: text}
		}
		for _, v := range []*float64{it.Protein, it.Carbs, it.Fat} {
			if v != nil && *v < 0 {
				return nil, &MalformedError{Raw: text}
			}
		}
		foods = append(foods, models.RecognizedFood{
			Name:     it.Name,
			Calories: *it.Calories,
			Protein:  it.Protein,
			Carbs:    it.Carbs,
			Fat:      it.Fat,
			Included: true,
		})
	}
	return foods, nil
}
