package faq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoEntries is returned when a FAQ document holds nothing to ingest.
var ErrNoEntries = errors.New("faq: no entries")

// Entry is one clinic question with its answer.
type Entry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Result is a ranked search hit.
type Result struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// document is the text that gets embedded for an entry.
func (e Entry) document() string {
	return strings.TrimSpace(e.Question + " " + e.Answer)
}

type rawEntry struct {
	ID       json.RawMessage `json:"id"`
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
}

// ParseEntries decodes either a JSON array of entries or an object of the form
// {"faqs": [...]}. Numeric ids are accepted; missing ids become "faq-{index}".
func ParseEntries(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoEntries
	}

	var raw []rawEntry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("faq: decode entries: %w", err)
		}
	case '{':
		var wrapped struct {
			FAQs []rawEntry `json:"faqs"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("faq: decode entries: %w", err)
		}
		raw = wrapped.FAQs
	default:
		return nil, errors.New("faq: document must be a JSON array or object")
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		e := Entry{
			ID:       parseID(r.ID),
			Question: strings.TrimSpace(r.Question),
			Answer:   strings.TrimSpace(r.Answer),
		}
		if e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("faq: entry %d: question and answer are required", i)
		}
		if e.ID == "" {
			e.ID = "faq-" + strconv.Itoa(i)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

func parseID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
