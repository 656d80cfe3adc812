package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/falconleb/shopify-tracker/internal/dto"
)

// encodeMetadata serializes the request metadata to its stored JSON form,
// folding in the top-level product and cart fields so the funnel's
// by-product extraction finds them in one place.
func encodeMetadata(req *dto.TrackEventRequest) (string, error) {
	merged := make(map[string]interface{}, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		merged[k] = v
	}
	if req.ProductID != "" {
		merged["product_id"] = req.ProductID
	}
	if req.ProductTitle != "" {
		merged["product_title"] = req.ProductTitle
	}
	if req.CartToken != "" {
		merged["cart_token"] = req.CartToken
	}
	if req.ItemsCount != 0 {
		merged["items_count"] = req.ItemsCount
	}

	if len(merged) == 0 {
		return "{}", nil
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(encoded), nil
}

// decodeMetadata parses a stored metadata payload. Malformed or empty
// payloads decode to an empty map; the read side never fails on metadata.
func decodeMetadata(encoded string) map[string]interface{} {
	if encoded == "" {
		return map[string]interface{}{}
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil || decoded == nil {
		return map[string]interface{}{}
	}
	return decoded
}

// metadataString reads a metadata value as a string, accepting JSON numbers
// for ids that arrive unquoted.
func metadataString(meta map[string]interface{}, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
