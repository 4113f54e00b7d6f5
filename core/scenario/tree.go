// Package scenario models the decision tree handed to a stochastic solver:
// a weighted tree of nodes, each naming its stage-cost expression and the
// decision-variable groups realized at that depth. The tree is a plain data
// value; traversal and aggregation stay with the caller.
package scenario

import (
	"errors"
	"fmt"
	"math"
)

// Node is one decision point. CostExpr names the model expression charged at
// this node ("CostExpressions[2]"); Variables lists the variable-group
// patterns realized here ("MT_EXP[*]"); DerivedVariables lists groups whose
// values follow from the others.
type Node struct {
	Name             string   `json:"name"`
	CostExpr         string   `json:"cost"`
	Variables        []string `json:"variables"`
	DerivedVariables []string `json:"derived_variables"`
}

// Edge connects a parent to a child with a conditional probability weight.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// Tree is a rooted decision tree. Nodes and edges keep insertion order so a
// printed tree is stable.
type Tree struct {
	Root  string `json:"root"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index    map[string]int
	children map[string][]int // edge indices by parent
	parent   map[string]string
}

// ErrUnknownScenario is returned when a leaf name is not in the tree.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// NewTree returns a tree rooted at the given node.
func NewTree(root Node) *Tree {
	t := &Tree{
		Root:     root.Name,
		index:    make(map[string]int),
		children: make(map[string][]int),
		parent:   make(map[string]string),
	}
	t.index[root.Name] = 0
	t.Nodes = append(t.Nodes, root)
	return t
}

// AddNode attaches a child node under parent with the given conditional
// probability weight.
func (t *Tree) AddNode(parent string, n Node, weight float64) error {
	if _, ok := t.index[parent]; !ok {
		return fmt.Errorf("scenario: parent %s not in tree", parent)
	}
	if _, ok := t.index[n.Name]; ok {
		return fmt.Errorf("scenario: node %s already in tree", n.Name)
	}
	t.index[n.Name] = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	t.Edges = append(t.Edges, Edge{From: parent, To: n.Name, Weight: weight})
	t.children[parent] = append(t.children[parent], len(t.Edges)-1)
	t.parent[n.Name] = parent
	return nil
}

// Node returns the named node.
func (t *Tree) Node(name string) (Node, bool) {
	i, ok := t.index[name]
	if !ok {
		return Node{}, false
	}
	return t.Nodes[i], true
}

// Leaves returns leaf node names in insertion order. Each leaf is one
// scenario.
func (t *Tree) Leaves() []string {
	var out []string
	for _, n := range t.Nodes {
		if len(t.children[n.Name]) == 0 {
			out = append(out, n.Name)
		}
	}
	return out
}

// Path returns the node-name path from the root to the named leaf, root
// first. This is the node_names argument of the instance callback.
func (t *Tree) Path(leaf string) ([]string, error) {
	if _, ok := t.index[leaf]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, leaf)
	}
	var rev []string
	for name := leaf; ; {
		rev = append(rev, name)
		p, ok := t.parent[name]
		if !ok {
			break
		}
		name = p
	}
	out := make([]string, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out, nil
}

// Probability returns the unconditional probability of reaching the named
// leaf: the product of edge weights along its path.
func (t *Tree) Probability(leaf string) (float64, error) {
	path, err := t.Path(leaf)
	if err != nil {
		return 0, err
	}
	p := 1.0
	for i := 1; i < len(path); i++ {
		for _, ei := range t.children[path[i-1]] {
			if t.Edges[ei].To == path[i] {
				p *= t.Edges[ei].Weight
			}
		}
	}
	return p, nil
}

// Validate checks the probability invariant: every edge weight is
// non-negative and the outgoing weights of each non-leaf node sum to 1 within
// tol.
func (t *Tree) Validate(tol float64) error {
	for _, e := range t.Edges {
		if e.Weight < 0 {
			return fmt.Errorf("scenario: negative weight %g on edge %s->%s", e.Weight, e.From, e.To)
		}
	}
	for _, n := range t.Nodes {
		edges := t.children[n.Name]
		if len(edges) == 0 {
			continue
		}
		sum := 0.0
		for _, ei := range edges {
			sum += t.Edges[ei].Weight
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("scenario: outgoing weights of %s sum to %g, want 1", n.Name, sum)
		}
	}
	return nil
}
