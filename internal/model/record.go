package model

// Record is the intermediate type produced by connectors and consumed by the engine.
type Record struct {
	EntityID string `json:"entity"` // grouping key (e.g. the speaker of an interview turn)
	Text     string `json:"text"`
	Ordinal  int    `json:"ordinal"` // position in the input stream, starting at 0
}

// TaggedRecord is a Record with the categories its text matched.
type TaggedRecord struct {
	Record
	Categories []string `json:"categories"` // dictionary declaration order, no duplicates
}
