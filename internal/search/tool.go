package search

import (
	"context"
	"encoding/json"
	"errors"
)

// Tool exposes the search service as an agent-invocable capability with a
// declared input schema.
type Tool struct {
	svc *Service
}

// NewTool wraps a Service for tool-calling layers.
func NewTool(svc *Service) *Tool {
	return &Tool{svc: svc}
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Search flight availability across award and cash providers. " +
		"Omitted parameters are inherited from the chat's previous search."
}

func (t *Tool) InputSchema() string {
	return `{
  "type": "object",
  "properties": {
    "origin": {"type": "string", "description": "Origin airport IATA code, e.g. FRA"},
    "destination": {"type": "string", "description": "Destination airport IATA code, e.g. BKK"},
    "departDate": {"type": "string", "description": "Departure date, YYYY-MM-DD"},
    "returnDate": {"type": "string", "description": "Return date for round trips, YYYY-MM-DD"},
    "cabin": {"type": "string", "enum": ["economy", "premium_economy", "business", "first"]},
    "passengers": {"type": "integer", "minimum": 1, "maximum": 9},
    "awardOnly": {"type": "boolean", "description": "Only search award (miles) availability"},
    "flexibility": {"type": "integer", "description": "Days of date flexibility"},
    "nonStop": {"type": "boolean", "description": "Only direct flights"}
  },
  "required": ["origin", "destination", "departDate"]
}`
}

// Execute runs the search and returns the result as JSON. Duplicate
// submissions return a pointer to the in-flight call rather than an error,
// so the calling layer can relay something useful to the user.
func (t *Tool) Execute(ctx context.Context, chatID, input string) (string, error) {
	result, err := t.svc.Execute(ctx, chatID, json.RawMessage(input))
	if err != nil {
		var inFlight *ErrInFlight
		if errors.As(err, &inFlight) {
			out, merr := json.Marshal(map[string]string{
				"status":     "in_flight",
				"toolCallId": inFlight.ToolCallID,
			})
			if merr != nil {
				return "", merr
			}
			return string(out), nil
		}
		return "", err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
