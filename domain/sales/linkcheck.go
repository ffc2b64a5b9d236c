package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/pkg/logger"
)

// LinkCheckPayload is the input of the image link validation job
type LinkCheckPayload struct {
	ImageURL string `json:"imageUrl"`
	SaleID   string `json:"saleId,omitempty"`
}

// LinkChecker validates that a listing's image URL is reachable.
//
// The check is advisory: the listing is already published when this runs, so
// an unreachable image is logged and the job still succeeds. Only a missing
// URL in the payload is a real failure.
type LinkChecker struct {
	client *http.Client
	log    *slog.Logger
}

// NewLinkChecker creates the link validation handler
func NewLinkChecker(cfg *config.Config, log *slog.Logger) *LinkChecker {
	return &LinkChecker{
		client: &http.Client{Timeout: cfg.Jobs.LinkCheckTimeout},
		log:    log.With(logger.Scope("sales.linkcheck")),
	}
}

// Handle processes one link validation job
func (h *LinkChecker) Handle(ctx context.Context, payload json.RawMessage) error {
	var p LinkCheckPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("link check: decode payload: %w", err)
	}

	if p.ImageURL == "" {
		return fmt.Errorf("link check: missing imageUrl")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ImageURL, nil)
	if err != nil {
		h.log.Warn("image url is malformed",
			slog.String("sale_id", p.SaleID),
			slog.String("image_url", p.ImageURL),
			logger.Error(err))
		return nil
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("image url unreachable",
			slog.String("sale_id", p.SaleID),
			slog.String("image_url", p.ImageURL),
			logger.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		h.log.Warn("image url returned error status",
			slog.String("sale_id", p.SaleID),
			slog.String("image_url", p.ImageURL),
			slog.Int("status", resp.StatusCode))
		return nil
	}

	h.log.Debug("image url reachable",
		slog.String("sale_id", p.SaleID),
		slog.Int("status", resp.StatusCode))
	return nil
}
