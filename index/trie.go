package index

import "strings"

// trieNode is one segment of the prefix index. Each node records every
// option path registered at or beneath its dot-prefix.
type trieNode struct {
	children map[string]*trieNode
	paths    []string
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// insert registers path under every dot-prefix of itself.
func (n *trieNode) insert(path string) {
	node := n
	for _, seg := range strings.Split(path, ".") {
		child, ok := node.children[seg]
		if !ok {
			child = newTrieNode()
			node.children[seg] = child
		}
		child.paths = append(child.paths, path)
		node = child
	}
}

// lookup returns the paths registered under an exact dot-prefix, or nil
// when no such prefix exists.
func (n *trieNode) lookup(prefix string) []string {
	node := n
	for _, seg := range strings.Split(prefix, ".") {
		child, ok := node.children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	return node.paths
}

// walk applies fn to every node's path list in depth-first order.
func (n *trieNode) walk(fn func(paths []string)) {
	for _, child := range n.children {
		fn(child.paths)
		child.walk(fn)
	}
}
