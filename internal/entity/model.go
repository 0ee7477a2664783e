package entity

import (
	"fmt"
	"math"
	"sort"
)

// TreeNode is one node of a decision tree. Leaf nodes carry a Value;
// internal nodes route on Feature <= Threshold to Left, else Right.
type TreeNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      int      `json:"left"`
	Right     int      `json:"right"`
	Value     *float64 `json:"value,omitempty"`
}

// Tree is a single decision tree, nodes indexed from the root at 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// FeatureImportance pairs a feature name with its importance weight.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelArtifact is a pretrained gradient-boosted binary classifier,
// loaded read-only from a per-symbol JSON file. Raw tree outputs are
// summed with the base score and squashed through a sigmoid.
type ModelArtifact struct {
	Symbol       string              `json:"symbol"`
	FeatureNames []string            `json:"feature_names"`
	BaseScore    float64             `json:"base_score"`
	Trees        []Tree              `json:"trees"`
	Importances  []FeatureImportance `json:"feature_importances,omitempty"`
}

// Validate checks structural integrity of the artifact. Every feature
// name must be a column the feature engine produces; an artifact trained
// against a different schema is rejected at load time instead of failing
// every row with insufficient data.
func (m *ModelArtifact) Validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model artifact has no feature names")
	}
	known := make(map[string]struct{})
	for _, name := range FeatureNames() {
		known[name] = struct{}{}
	}
	for _, name := range m.FeatureNames {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("model artifact references unknown feature column %q", name)
		}
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model artifact has no trees")
	}
	for i, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", i)
		}
		for j, n := range tree.Nodes {
			if n.Value != nil {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) {
				return fmt.Errorf("tree %d node %d references unknown feature %d", i, j, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has out-of-range children", i, j)
			}
		}
	}
	return nil
}

// Predict classifies a feature vector ordered per FeatureNames and
// returns 0 or 1.
func (m *ModelArtifact) Predict(vec []float64) int {
	score := m.BaseScore
	for i := range m.Trees {
		score += m.Trees[i].score(vec)
	}
	prob := 1.0 / (1.0 + math.Exp(-score))
	if prob > 0.5 {
		return 1
	}
	return 0
}

func (t *Tree) score(vec []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Value != nil {
			return *n.Value
		}
		if vec[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// TopImportances returns up to n importances sorted by weight descending,
// ties broken by feature name for determinism. Artifacts without
// importances return an empty slice.
func (m *ModelArtifact) TopImportances(n int) []FeatureImportance {
	out := make([]FeatureImportance, len(m.Importances))
	copy(out, m.Importances)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []FeatureImportance{}
	}
	return out
}
