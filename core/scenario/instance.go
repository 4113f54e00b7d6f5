package scenario

import "github.com/wyattarnold/StageLP-WSOP/core/program"

// Instancer is the pair of entry points a stochastic runner needs: a tree
// description and a per-scenario instance factory. Instance receives the
// scenario (leaf) name and the node-name path from the root, clones the
// symbolic model and overwrites the scenario-specific mutable parameters.
type Instancer interface {
	TreeModel() *Tree
	Instance(scenarioName string, nodeNames []string) (*program.Model, error)
}
