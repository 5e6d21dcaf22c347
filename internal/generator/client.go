// Package generator talks to the external challenge-generation service
// and keeps a small cache of recently generated documents.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	locale     string
	itemCount  int
	log        *logger.Logger
}

func New(baseURL string, timeout time.Duration, locale string, itemCount int) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		locale:     locale,
		itemCount:  itemCount,
		log:        logger.Default().WithPrefix("generator"),
	}
}

// Request is the generation request body.
type Request struct {
	Type          models.ChallengeID `json:"type"`
	Difficulty    string             `json:"difficulty"`
	Count         int                `json:"count"`
	Adaptive      bool               `json:"adaptive"`
	UseLLM        bool               `json:"use_llm"`
	Seed          *int64             `json:"seed,omitempty"`
	Locale        string             `json:"locale"`
	TimeBudgetSec int                `json:"timeBudgetSec"`
}

// Create requests a fresh challenge document for the given track.
func (c *Client) Create(ctx context.Context, typ models.ChallengeID, difficulty string, adaptive bool, seed *int64) (*challenge.Doc, error) {
	log := logger.FromContext(ctx).WithPrefix("generator").WithField("type", string(typ))
	url := c.baseURL + "/v1/challenges/new"

	body, err := json.Marshal(Request{
		Type:          typ,
		Difficulty:    difficulty,
		Count:         c.itemCount,
		Adaptive:      adaptive,
		UseLLM:        true,
		Seed:          seed,
		Locale:        c.locale,
		TimeBudgetSec: 600,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("requesting challenge from: %s", url)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch challenge: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("challenge response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("challenge request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("challenge status %d: %s", resp.StatusCode, string(respBody))
	}

	var doc challenge.Doc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		log.Error("failed to decode challenge response: %v", err)
		return nil, err
	}
	if len(doc.Items) == 0 {
		log.Error("challenge document has no items: id=%s", doc.ChallengeID)
		return nil, fmt.Errorf("challenge %s has no items", doc.ChallengeID)
	}

	log.Info("fetched challenge %s with %d items", doc.ChallengeID, len(doc.Items))
	return &doc, nil
}
