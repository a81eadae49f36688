package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/crimson-sun/aspectflow/internal/model"
)

//go:embed corpus.json
var corpusJSON []byte

// Turn is one labeled interview utterance.
type Turn struct {
	Who      string   `json:"who"`
	Text     string   `json:"text"`
	Expected []string `json:"expected"`
}

// Corpus is a labeled interview transcript with the sequences it should
// produce under Preset.
type Corpus struct {
	Preset    string              `json:"preset"`
	Turns     []Turn              `json:"turns"`
	Sequences map[string][]string `json:"sequences"`
	Order     []string            `json:"order"` // entities in first-seen order
}

// Records converts the turns to engine input, numbering them in order.
func (c Corpus) Records() []model.Record {
	recs := make([]model.Record, len(c.Turns))
	for i, t := range c.Turns {
		recs[i] = model.Record{EntityID: t.Who, Text: t.Text, Ordinal: i}
	}
	return recs
}

// LoadCorpus parses the embedded corpus.json.
func LoadCorpus() (Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(corpusJSON, &c); err != nil {
		return Corpus{}, fmt.Errorf("parse corpus.json: %w", err)
	}
	return c, nil
}
