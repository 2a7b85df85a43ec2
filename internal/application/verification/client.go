package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the oracle's scoring response for one image.
type Result struct {
	Confidence           float64  `json:"confidence"`
	Reasoning            string   `json:"reasoning"`
	DetectedFeatures     []string `json:"detectedFeatures"`
	EnvironmentalContext string   `json:"environmentalContext"`
}

// VerifyRequest carries one image and its claimed site to the oracle.
type VerifyRequest struct {
	ImageBytes    []byte
	EcosystemType string
	Lat           float64
	Lng           float64
}

// ImageVerifier defines what we need from the external verification service.
type ImageVerifier interface {
	Verify(ctx context.Context, req VerifyRequest) (*Result, error)
}

// HTTPClient is an ImageVerifier backed by the verifier's HTTP API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type verifyRequestBody struct {
	Image         string  `json:"image"` // base64
	EcosystemType string  `json:"ecosystem_type"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
}

func (c *HTTPClient) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("verifier: VERIFIER_URL is not set")
	}

	base := strings.TrimRight(c.BaseURL, "/")
	url := base + "/v1/verify"

	bodyBytes, err := json.Marshal(verifyRequestBody{
		Image:         base64.StdEncoding.EncodeToString(req.ImageBytes),
		EcosystemType: req.EcosystemType,
		Lat:           req.Lat,
		Lng:           req.Lng,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("verifier error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var out Result
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("verifier response decode: %w", err)
	}
	return &out, nil
}
