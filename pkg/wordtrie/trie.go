// Package wordtrie groups delimiter-separated names by their longest common
// whole-word prefix. Names are inserted into a trie of words; a single
// bottom-up traversal then decides which names cluster together and what the
// most descriptive name for each cluster is.
package wordtrie

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultDelimiter is the word delimiter used when none is specified.
const DefaultDelimiter = "_"

// ErrInvalidDelimiter indicates the configured word delimiter is not exactly
// one character.
var ErrInvalidDelimiter = errors.New("wordtrie: delimiter must be a single character")

// Node stores a single word at one depth of the trie. Children are keyed by
// the next word and iterated in insertion order, which keeps grouping
// deterministic for a given input.
type Node struct {
	// Word is the single word stored in this node. Empty only for the root.
	Word string
	// Text is the full prefix from the root to this node, words rejoined
	// with the trie's delimiter. Empty for the root.
	Text string
	// NameCount is the number of inserted names terminating exactly at this
	// node. Repeated inserts of the same name accumulate here so duplicates
	// survive into the grouping result.
	NameCount int

	children map[string]*Node
	order    []string
}

// IsRoot reports whether this is the root node.
func (n *Node) IsRoot() bool { return n.Word == "" }

// IsFullName reports whether some inserted name terminates at this node.
func (n *Node) IsFullName() bool { return n.NameCount > 0 }

// IsBranchingPoint reports whether the node has more than one child.
func (n *Node) IsBranchingPoint() bool { return len(n.children) > 1 }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Child returns the child node for the given word, if present.
func (n *Node) Child(word string) (*Node, bool) {
	c, ok := n.children[word]
	return c, ok
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	nodes := make([]*Node, 0, len(n.order))
	for _, word := range n.order {
		nodes = append(nodes, n.children[word])
	}
	return nodes
}

// Trie is a tree of word nodes built from a flat list of names. A Trie is
// owned by the call that built it and must not be shared between goroutines:
// Insert mutates child maps in place.
type Trie struct {
	root      *Node
	delimiter string
}

// New creates an empty trie with the given word delimiter. The delimiter must
// be exactly one character.
func New(delimiter string) (*Trie, error) {
	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, ErrInvalidDelimiter
	}
	return &Trie{root: &Node{}, delimiter: delimiter}, nil
}

// FromNames builds a fresh trie and inserts each name in input order.
func FromNames(names []string, delimiter string) (*Trie, error) {
	t, err := New(delimiter)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		t.Insert(name)
	}
	return t, nil
}

// Root returns the root node of the trie.
func (t *Trie) Root() *Node { return t.root }

// Delimiter returns the word delimiter the trie was built with.
func (t *Trie) Delimiter() string { return t.delimiter }

// Insert splits name into words on the delimiter and walks the trie from the
// root, creating a node per word where none exists yet. The final node on the
// path is marked as terminating the name. A name without the delimiter
// produces a single child of the root.
func (t *Trie) Insert(name string) {
	words := strings.Split(name, t.delimiter)
	current := t.root

	for i, word := range words {
		child, ok := current.children[word]
		if !ok {
			child = &Node{
				Word: word,
				Text: strings.Join(words[:i+1], t.delimiter),
			}
			if current.children == nil {
				current.children = make(map[string]*Node)
			}
			current.children[word] = child
			current.order = append(current.order, word)
		}
		current = child
	}

	current.NameCount++
}
