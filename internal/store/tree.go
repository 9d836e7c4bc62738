package store

import (
	"go.yaml.in/yaml/v3"
)

// Tree is the key-ordered mapping held in the schedule file. Keys are due
// timestamps; values are schedule sections. Mutations touch memory only.
type Tree struct {
	root *yaml.Node
	head string
}

func NewTree() *Tree {
	return &Tree{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Len is the number of top-level entries.
func (t *Tree) Len() int { return len(t.root.Content) / 2 }

// Keys returns the top-level keys in file order.
func (t *Tree) Keys() []string {
	out := make([]string, 0, t.Len())
	for i := 0; i+1 < len(t.root.Content); i += 2 {
		out = append(out, t.root.Content[i].Value)
	}
	return out
}

// Get returns the value node stored under key.
func (t *Tree) Get(key string) (*yaml.Node, bool) {
	if i := t.index(key); i >= 0 {
		return t.root.Content[i+1], true
	}
	return nil, false
}

// Set replaces the value of an existing key in place, or inserts key before the
// first greater key so timestamp keys stay chronological.
func (t *Tree) Set(key string, value *yaml.Node) {
	if i := t.index(key); i >= 0 {
		t.root.Content[i+1] = value
		return
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Style: yaml.SingleQuotedStyle}
	at := len(t.root.Content)
	for i := 0; i+1 < len(t.root.Content); i += 2 {
		if t.root.Content[i].Value > key {
			at = i
			break
		}
	}
	content := make([]*yaml.Node, 0, len(t.root.Content)+2)
	content = append(content, t.root.Content[:at]...)
	content = append(content, k, value)
	content = append(content, t.root.Content[at:]...)
	t.root.Content = content
}

// Remove deletes key and reports whether it was present.
func (t *Tree) Remove(key string) bool {
	i := t.index(key)
	if i < 0 {
		return false
	}
	t.root.Content = append(t.root.Content[:i], t.root.Content[i+2:]...)
	return true
}

func (t *Tree) index(key string) int {
	for i := 0; i+1 < len(t.root.Content); i += 2 {
		if t.root.Content[i].Value == key {
			return i
		}
	}
	return -1
}
