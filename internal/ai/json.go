package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/metrics"
)

// RepairWarning is surfaced to clients when a response needed repair.
const RepairWarning = "model output required repair"

// Parse describes how a model document was decoded.
type Parse struct {
	Repaired bool
}

// Warnings returns the client-facing warnings for this parse, or nil.
func (p Parse) Warnings() []string {
	if p.Repaired {
		return []string{RepairWarning}
	}
	return nil
}

// DecodeJSON decodes a model answer into v.
//
// Markdown fences and prose around the outermost JSON value are dropped,
// then the text is decoded strictly. If that fails it is passed through
// jsonrepair and decoded again; success reports Parse.Repaired. When both
// fail the error is apperror.ErrMalformedAIResponse.
func DecodeJSON(text string, v any) (Parse, error) {
	doc := extractJSON(text)
	if doc == "" {
		return Parse{}, apperror.MalformedAIResponse(errors.New("no JSON value in model output"))
	}

	strictErr := decodeStrict(doc, v)
	if strictErr == nil {
		return Parse{}, nil
	}

	repaired, err := jsonrepair.JSONRepair(doc)
	if err != nil {
		return Parse{}, apperror.MalformedAIResponse(errors.Join(strictErr, fmt.Errorf("repair: %w", err)))
	}
	if err := decodeStrict(repaired, v); err != nil {
		return Parse{}, apperror.MalformedAIResponse(errors.Join(strictErr, fmt.Errorf("after repair: %w", err)))
	}
	metrics.AIRepairs.Inc()
	return Parse{Repaired: true}, nil
}

func decodeStrict(doc string, v any) error {
	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Exactly one value.
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// extractJSON strips code fences and returns the text from the first '{' or
// '[' to the matching last '}' or ']'.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := bytes.LastIndexByte([]byte(s), closer)
	if end < start {
		// Truncated document; let repair try to close it.
		return s[start:]
	}
	return s[start : end+1]
}
