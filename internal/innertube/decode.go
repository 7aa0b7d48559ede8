package innertube

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the player response body is empty.
var ErrEmptyResponse = errors.New("empty player response")

// DecodePlayerResponse decodes a raw /player JSON body. A bare streamingData
// object (one that has formats or adaptiveFormats at the top level) is
// accepted as well and wrapped into a PlayerResponse.
func DecodePlayerResponse(body []byte) (*PlayerResponse, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	_, hasFormats := probe["formats"]
	_, hasAdaptive := probe["adaptiveFormats"]
	if _, wrapped := probe["streamingData"]; !wrapped && (hasFormats || hasAdaptive) {
		var sd StreamingData
		if err := json.Unmarshal(body, &sd); err != nil {
			return nil, fmt.Errorf("decode streaming data: %w", err)
		}
		return &PlayerResponse{StreamingData: &sd}, nil
	}

	var resp PlayerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &resp, nil
}
