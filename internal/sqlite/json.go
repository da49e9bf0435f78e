package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// documentsJSONL is the source-of-truth file in DataDir.
const documentsJSONL = "documents.jsonl"

// documentJSON is one line of documents.jsonl.
type documentJSON struct {
	ID         string          `json:"_id"`
	Rev        string          `json:"_rev"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// encodeAttributes serializes attributes to the JSON text stored in SQLite.
func encodeAttributes(attrs map[string]any) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return string(data), nil
}

func decodeAttributes(data string) (map[string]any, error) {
	attrs, err := types.DecodeAttributes([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("parsing attributes: %w", err)
	}
	return attrs, nil
}
