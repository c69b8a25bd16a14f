// Package classify wraps the external OCR/AI sidecar that categorizes
// document payloads. The model itself is opaque; this package owns the
// transport, the timeout, and the circuit breaker in front of it.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"fleetdocs-backend/internal/docmime"
	"fleetdocs-backend/internal/shared/util"
)

// ErrClassification covers transport failures, malformed responses, and
// payloads the sidecar refuses. Callers report it against the file that
// triggered the call; nothing here retries on the caller's behalf.
var ErrClassification = errors.New("classification failed")

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("classifier unavailable")

// Classifier is the capability consumed by the digitize flows.
type Classifier interface {
	Classify(ctx context.Context, data []byte, filename string, autoSave bool) (Result, error)
}

// Client calls the classification sidecar over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[Result]
}

// NewClient constructs a sidecar client. Latency is OCR-bound, so the
// timeout must cover a full page scan; 30-60s is the useful range.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("CLASSIFIER_URL is required")
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "classifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[Result](settings),
	}, nil
}

type classifyRequest struct {
	FileData string `json:"fileData"`
	Filename string `json:"filename"`
	AutoSave bool   `json:"autoSave"`
}

type classifyResponse struct {
	Success         bool     `json:"success"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary"`
	ExtractedFields []Field  `json:"extracted_fields"`
	SuggestedTags   []string `json:"suggested_tags"`
	SuggestedExpiry string   `json:"suggested_expiry_date"`
	Engine          string   `json:"engine"`
	LineCount       int      `json:"line_count"`
	Error           string   `json:"error"`
}

// Classify sends the payload to the sidecar as a base64 data URL and maps
// the response into a Result. The returned Result is complete and immutable;
// savedDocumentId is assigned by the caller that persists the document.
func (c *Client) Classify(ctx context.Context, data []byte, filename string, autoSave bool) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty payload for %s", ErrClassification, filename)
	}

	result, err := c.breaker.Execute(func() (Result, error) {
		return c.classifyOnce(ctx, data, filename, autoSave)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, fmt.Errorf("%w: %s", ErrUnavailable, filename)
		}
		return Result{}, err
	}
	return result, nil
}

func (c *Client) classifyOnce(ctx context.Context, data []byte, filename string, autoSave bool) (Result, error) {
	mimeType := docmime.Infer("", filename)
	payload := classifyRequest{
		FileData: util.EncodeDataURL(mimeType, data),
		Filename: filename,
		AutoSave: autoSave,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", ErrClassification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrClassification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrClassification, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: sidecar status %d", ErrClassification, resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, fmt.Errorf("%w: malformed response: %v", ErrClassification, err)
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "sidecar reported failure"
		}
		return Result{}, fmt.Errorf("%w: %s", ErrClassification, msg)
	}

	category := decoded.Category
	if category == "" {
		category = "other"
	}

	return Result{
		Category:        category,
		Subcategory:     decoded.Subcategory,
		Confidence:      clampConfidence(decoded.Confidence),
		Summary:         decoded.Summary,
		Fields:          dedupeFields(decoded.ExtractedFields),
		Tags:            dedupeTags(decoded.SuggestedTags),
		SuggestedExpiry: decoded.SuggestedExpiry,
		EngineID:        decoded.Engine,
		LineCount:       decoded.LineCount,
	}, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
