package predictor

import (
	"context"
	"errors"
	"fmt"
)

// LeafChild marks a node without children.
const LeafChild = -1

// TreeNode is one node of an exported regression tree. Internal nodes send
// rows with x[Feature] <= Threshold to Left, everything else to Right.
// Leaves have Left == Right == LeafChild and carry the prediction in Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// IsLeaf reports whether the node terminates traversal.
func (n TreeNode) IsLeaf() bool { return n.Left == LeafChild && n.Right == LeafChild }

// Tree is a regression tree stored as a flat node array rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// validate checks child links and feature indexes. Children must come after
// their parent, so traversal always terminates.
func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d outside width %d", i, n.Feature, width)
		}
	}
	return nil
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ForestModel is a random forest regressor. Its prediction is the mean of
// its trees.
type ForestModel struct {
	trees   []Tree
	names   []string
	version string
}

// NewForestModel validates every tree against the width given by names.
func NewForestModel(names []string, trees []Tree, version string) (*ForestModel, error) {
	if len(names) == 0 {
		return nil, errors.New("forest model has no feature names")
	}
	if len(trees) == 0 {
		return nil, errors.New("forest model has no trees")
	}
	for i, t := range trees {
		if err := t.validate(len(names)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &ForestModel{
		trees:   append([]Tree(nil), trees...),
		names:   append([]string(nil), names...),
		version: version,
	}, nil
}

// Predict averages the tree outputs for x.
func (m *ForestModel) Predict(ctx context.Context, x []float64) (float64, error) {
	if len(x) != len(m.names) {
		return 0, fmt.Errorf("forest model expects %d features, got %d", len(m.names), len(x))
	}
	var sum float64
	for _, t := range m.trees {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		sum += t.predict(x)
	}
	return sum / float64(len(m.trees)), nil
}

func (m *ForestModel) FeatureNames() []string { return append([]string(nil), m.names...) }

func (m *ForestModel) Version() string { return m.version }

// Trees returns the number of estimators.
func (m *ForestModel) Trees() int { return len(m.trees) }
