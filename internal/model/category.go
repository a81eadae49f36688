package model

// Category is a named aspect and the keyword patterns that select it.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}
