package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// leadListSchema describes the lead arrays returned by /api/search and
// /api/history. Optional fields may be absent or null.
const leadListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id":        {"type": ["string", "integer"]},
      "name":      {"type": "string", "minLength": 1},
      "instagram": {"type": ["string", "null"]},
      "website":   {"type": ["string", "null"]},
      "whatsapp":  {"type": ["string", "null"]},
      "contact":   {"type": ["string", "null"]},
      "score":     {"type": ["number", "null"]}
    }
  }
}`

var compiledLeadList = jsonschema.MustCompileString("leads.schema.json", leadListSchema)

type wireLead struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Instagram *string         `json:"instagram"`
	Website   *string         `json:"website"`
	WhatsApp  *string         `json:"whatsapp"`
	Contact   *string         `json:"contact"`
	Score     *float64        `json:"score"`
}

// DecodeList parses a lead collection from a backend payload. It accepts a
// bare JSON array, the {"leads": [...]} envelope produced by the generator,
// or null (treated as an empty collection). Every element is checked against
// the lead schema before it is converted; string values are kept as sent.
func DecodeList(payload []byte) ([]Lead, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Lead{}, nil
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Leads json.RawMessage `json:"leads"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if envelope.Leads == nil {
			return nil, fmt.Errorf("%w: object without leads field", ErrMalformedPayload)
		}
		return DecodeList(envelope.Leads)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := compiledLeadList.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var wire []wireLead
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := make([]Lead, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toLead())
	}
	return out, nil
}

func (w wireLead) toLead() Lead {
	lead := Lead{
		ID:        decodeID(w.ID),
		Name:      w.Name,
		Instagram: deref(w.Instagram),
		Website:   deref(w.Website),
		WhatsApp:  deref(w.WhatsApp),
		Contact:   deref(w.Contact),
	}
	if w.Score != nil {
		lead.Score = clampScore(*w.Score)
	}
	return lead
}

func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
