package dictionary

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/aspectflow/internal/model"
)

var ErrEmptyDocument = errors.New("dictionary: empty document")

// File is the parsed form of a dictionary YAML file.
//
// Two layouts are accepted. The structured layout has a "categories" key
// holding a list of {name, keywords} objects (or a name→keywords mapping)
// and an optional "mode" key. Without a "categories" key, every top-level
// key is a category name mapped to its keyword list. Both keep the order
// in which categories are written.
type File struct {
	Mode       string
	Categories []model.Category
}

// Options returns the dictionary options implied by the file. Append them
// after caller defaults so the file's mode wins.
func (f File) Options() ([]Option, error) {
	if f.Mode == "" {
		return nil, nil
	}
	m, err := ParseMatchMode(f.Mode)
	if err != nil {
		return nil, err
	}
	return []Option{WithMatchMode(m)}, nil
}

// LoadFile reads and parses a dictionary YAML file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("dictionary: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a dictionary document.
func Parse(data []byte) (File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return File{}, fmt.Errorf("dictionary: parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return File{}, ErrEmptyDocument
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return File{}, fmt.Errorf("dictionary: top level must be a mapping (line %d)", root.Line)
	}

	var f File
	catsNode := root
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "categories" {
			catsNode = root.Content[i+1]
			break
		}
	}
	if catsNode != root {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "mode" {
				f.Mode = root.Content[i+1].Value
			}
		}
	}

	cats, err := decodeCategories(catsNode)
	if err != nil {
		return File{}, err
	}
	f.Categories = cats
	return f, nil
}

func decodeCategories(node *yaml.Node) ([]model.Category, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var cats []model.Category
		if err := node.Decode(&cats); err != nil {
			return nil, fmt.Errorf("dictionary: categories: %w", err)
		}
		return cats, nil
	case yaml.MappingNode:
		cats := make([]model.Category, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			var keywords []string
			if err := node.Content[i+1].Decode(&keywords); err != nil {
				return nil, fmt.Errorf("dictionary: category %q (line %d): %w", name, node.Content[i+1].Line, err)
			}
			cats = append(cats, model.Category{Name: name, Keywords: keywords})
		}
		return cats, nil
	default:
		return nil, fmt.Errorf("dictionary: categories must be a list or mapping (line %d)", node.Line)
	}
}

// Resolve builds a dictionary from a YAML file when path is set, otherwise
// from the named preset. A mode declared in the file overrides the mode in
// opts.
func Resolve(path, preset string, opts ...Option) (*Dictionary, error) {
	if path == "" {
		cats, err := Preset(preset)
		if err != nil {
			return nil, err
		}
		return New(cats, opts...)
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	fileOpts, err := f.Options()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d, err := New(f.Categories, append(slices.Clone(opts), fileOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
