package aspectflow

// Category is a named aspect and the keywords that signal it.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Record is one utterance attributed to a speaker or other entity. Records
// of the same entity must be passed in the order they occurred.
type Record struct {
	Entity string `json:"entity"`
	Text   string `json:"text"`
}

// Sequence is the ordered aspect trail of one entity.
// This is the stable public type; internal representations may evolve
// independently.
type Sequence struct {
	Entity     string         `json:"entity"`
	Categories []string       `json:"sequence"`         // adjacent duplicates removed
	Counts     map[string]int `json:"counts,omitempty"` // matches per category, duplicates included
	Records    int            `json:"records"`          // records considered
	Tagged     int            `json:"tagged"`           // records with at least one category
}
