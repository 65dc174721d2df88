package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopsnap/backend/internal/domain"
	"github.com/shopsnap/backend/internal/metrics"
)

const identifyPromptFormat = `You are a smart cashier assistant.
Analyze the provided image. Identify the main product shown.
Compare it strictly against the following database of products:

%s

If the product in the image closely matches one in the list (considering visual appearance, brand, and likely product type), return its ID as matchedProductId.
If it does not match any known product, return null for matchedProductId.
Respond with strict JSON of the shape {"matchedProductId": string or null, "reason": string}. The reason must briefly explain why it matched or did not match.`

// Rejection reasons shown to the operator when a scan cannot produce a
// match. Service failures and genuine non-matches read the same on
// purpose; metrics keep them apart.
const (
	reasonNoImage      = "No image data was provided."
	reasonEmptyCatalog = "The catalog has no products to compare against."
	reasonVisionError  = "Error connecting to AI service."
	reasonBadReply     = "The AI service returned an unreadable reply."
)

// IdentifyServiceConfig holds configuration for the identify service
type IdentifyServiceConfig struct {
	EnableDebugLogging bool
}

// IdentifyService decides whether a captured image depicts a known
// product. Each call is one inference round trip: no retries, no result
// caching, and identical images submitted twice are scanned twice.
type IdentifyService struct {
	vision             domain.VisionClient
	enableDebugLogging bool
}

// NewIdentifyService creates an identify service on the given vision client.
func NewIdentifyService(vision domain.VisionClient, config IdentifyServiceConfig) *IdentifyService {
	return &IdentifyService{
		vision:             vision,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// visionReply is the strict-JSON shape the model is instructed to emit.
type visionReply struct {
	MatchedProductID *string `json:"matchedProductId"`
	Reason           string  `json:"reason"`
}

// Identify matches one image against the given product snapshot. Only
// descriptive metadata is sent to the inference service, never the
// catalog's own image bytes. Every failure is converted into a rejection
// MatchResult with a human-readable reason; Identify never returns an
// error to the caller.
func (s *IdentifyService) Identify(ctx context.Context, imageJPEG []byte, products []domain.Product) domain.MatchResult {
	if len(imageJPEG) == 0 {
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeNoImage).Inc()
		return reject(reasonNoImage)
	}
	if len(products) == 0 {
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		return reject(reasonEmptyCatalog)
	}

	prompt := fmt.Sprintf(identifyPromptFormat, candidateList(products))

	text, err := s.vision.GenerateMatch(ctx, imageJPEG, prompt)
	if err != nil {
		slog.Warn("vision call failed", "component", "identify", "error", err)
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeVisionError).Inc()
		return reject(reasonVisionError)
	}

	var reply visionReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		slog.Warn("unparseable vision reply", "component", "identify", "error", err)
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeBadReply).Inc()
		return reject(reasonBadReply)
	}

	if s.enableDebugLogging {
		slog.Debug("vision reply", "component", "identify",
			"matched", reply.MatchedProductID != nil, "reason", reply.Reason)
	}

	if reply.MatchedProductID == nil || *reply.MatchedProductID == "" {
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		reason := reply.Reason
		if reason == "" {
			reason = "No matching product was found."
		}
		return reject(reason)
	}

	// The inference service is untrusted for referential correctness:
	// a returned id must identify a supplied candidate.
	if !containsProduct(products, *reply.MatchedProductID) {
		slog.Warn("vision reply referenced unknown product", "component", "identify", "id", *reply.MatchedProductID)
		metrics.ScansTotal.WithLabelValues(metrics.OutcomeUnknownID).Inc()
		return reject(fmt.Sprintf("The AI service referenced an unknown product id %q.", *reply.MatchedProductID))
	}

	metrics.ScansTotal.WithLabelValues(metrics.OutcomeMatch).Inc()
	reason := reply.Reason
	if reason == "" {
		reason = "Matched by visual appearance."
	}
	return domain.MatchResult{MatchedProductID: reply.MatchedProductID, Reason: reason}
}

// candidateList renders the compact textual description of every
// candidate product sent to the inference service.
func candidateList(products []domain.Product) string {
	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = fmt.Sprintf("ID: %s, Name: %s, Brand: %s, Price: %d", p.ID, p.Name, p.Brand, p.Price)
	}
	return strings.Join(lines, "\n")
}

func containsProduct(products []domain.Product, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func reject(reason string) domain.MatchResult {
	return domain.MatchResult{MatchedProductID: nil, Reason: reason}
}
