// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DateLayout is the calendar-day format used by session records.
const DateLayout = "2006-01-02"

// Question is a single practice sentence with its hidden keywords.
type Question struct {
	Statement string   `json:"statement"`
	Translate string   `json:"translate"`
	Keywords  []string `json:"keywords"`
}

// Unit is a named, ordered collection of questions.
type Unit struct {
	Name      string
	Questions []Question
}

// LanguageNode holds the keyboard hint and ordered units for one language.
type LanguageNode struct {
	Keyboard string
	Units    []Unit
}

// Dataset maps language codes to their nodes. Language preserves the
// declared code order for display.
type Dataset struct {
	Language []string
	Nodes    map[string]LanguageNode
}

// Node returns the node for a language code, if present.
func (d *Dataset) Node(code string) (LanguageNode, bool) {
	node, ok := d.Nodes[code]
	return node, ok
}

// FindUnit returns the question list for a unit name, if present.
func (n LanguageNode) FindUnit(name string) ([]Question, bool) {
	for _, u := range n.Units {
		if u.Name == name {
			return u.Questions, true
		}
	}
	return nil, false
}

// MarshalJSON renders the dataset in its wire format: a "language"
// array plus one top-level key per language code, each unit serialized
// as a singleton object to preserve unit order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Nodes)+1)
	langs, err := json.Marshal(d.Language)
	if err != nil {
		return nil, err
	}
	out["language"] = langs
	for code, node := range d.Nodes {
		units := make([]map[string][]Question, 0, len(node.Units))
		for _, u := range node.Units {
			units = append(units, map[string][]Question{u.Name: u.Questions})
		}
		raw, err := json.Marshal(struct {
			Keyboard string                  `json:"keyboard"`
			Unit     []map[string][]Question `json:"Unit"`
		}{Keyboard: node.Keyboard, Unit: units})
		if err != nil {
			return nil, err
		}
		out[code] = raw
	}
	return json.Marshal(out)
}

// QuizItem identifies one hidden keyword inside one question.
type QuizItem struct {
	QuestionIndex int `json:"questionIndex"`
	KeywordIndex  int `json:"keywordIndex"`
}

// MasteredMap maps a question index to the sorted keyword indexes the
// learner has answered correctly at least once.
type MasteredMap map[int][]int

// Clone returns a deep copy of the map.
func (m MasteredMap) Clone() MasteredMap {
	out := make(MasteredMap, len(m))
	for q, kws := range m {
		out[q] = append([]int(nil), kws...)
	}
	return out
}

// MarshalJSON keys the map with decimal strings, matching the wire
// format of the progress snapshots.
func (m MasteredMap) MarshalJSON() ([]byte, error) {
	out := make(map[string][]int, len(m))
	for q, kws := range m {
		out[fmt.Sprintf("%d", q)] = kws
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Keyword lists are kept
// sorted regardless of stored order.
func (m *MasteredMap) UnmarshalJSON(data []byte) error {
	var raw map[string][]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MasteredMap, len(raw))
	for key, kws := range raw {
		var q int
		if _, err := fmt.Sscanf(key, "%d", &q); err != nil {
			return fmt.Errorf("invalid question index %q", key)
		}
		sorted := append([]int(nil), kws...)
		sort.Ints(sorted)
		out[q] = sorted
	}
	*m = out
	return nil
}

// UnitProgress is the durable snapshot of scheduler state for one
// (language, unit) pair.
type UnitProgress struct {
	Language    string      `json:"language"`
	Unit        string      `json:"unit"`
	MasteredMap MasteredMap `json:"masteredMap"`
	QueueState  []QuizItem  `json:"queueState,omitempty"`
	UpdatedAt   int64       `json:"updatedAt"`
}

// SessionRecord is one immutable unit-completion event.
type SessionRecord struct {
	ID           int64  `json:"id,omitempty"`
	Date         string `json:"date"`
	LanguageCode string `json:"languageCode"`
	UnitName     string `json:"unitName"`
	StartedAt    int64  `json:"startedAt"`
	FinishedAt   int64  `json:"finishedAt"`
	DurationSec  int    `json:"durationSec"`
	TotalItems   int    `json:"totalItems"`
	WrongCount   int    `json:"wrongCount"`
	RetryCount   int    `json:"retryCount"`
}

// DatasetMeta records the last successful network fetch, in Unix
// milliseconds. Zero means the dataset has only ever come from cache.
type DatasetMeta struct {
	LastSuccessAt int64 `json:"lastSuccessAt,omitempty"`
}

// Source tells where a loaded dataset came from.
type Source string

// Dataset provenance values.
const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// LoadResult is the outcome of a dataset load.
type LoadResult struct {
	Dataset *Dataset
	URL     string
	Source  Source
	Meta    DatasetMeta
	// Err is set when a fresh fetch failed but a cached dataset was
	// returned instead (degraded mode).
	Err error
}
