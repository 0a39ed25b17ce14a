package graph

import "fmt"

// Defect is a structural problem found by Validate. The Type values reuse
// the critique taxonomy so structural and oracle-reported issues can be
// merged downstream.
type Defect struct {
	Type        string `json:"type"`
	NodeID      string `json:"nodeId,omitempty"`
	Description string `json:"description"`
}

const (
	DefectMergedPaths      = "merged_paths"
	DefectDisconnectedNode = "disconnected_node"
)

// Validate enumerates structural defects: nodes without the required
// incoming or outgoing edges, edges referencing unknown nodes, and
// categorical splits whose branches reconverge. It detects and flags; it
// never mutates the graph.
func Validate(g *Graph) []Defect {
	if g.IsEmpty() {
		return nil
	}

	byID := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		byID[g.Nodes[i].ID] = &g.Nodes[i]
	}

	incoming := map[string]int{}
	outgoing := map[string][]string{}
	var defects []Defect

	for _, e := range g.Edges {
		if _, ok := byID[e.Source]; !ok {
			defects = append(defects, Defect{
				Type:        DefectDisconnectedNode,
				NodeID:      e.Source,
				Description: fmt.Sprintf("edge %s references unknown source node %q", e.ID, e.Source),
			})
			continue
		}
		if _, ok := byID[e.Target]; !ok {
			defects = append(defects, Defect{
				Type:        DefectDisconnectedNode,
				NodeID:      e.Target,
				Description: fmt.Sprintf("edge %s references unknown target node %q", e.ID, e.Target),
			})
			continue
		}
		incoming[e.Target]++
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind != KindStart && incoming[n.ID] == 0 {
			defects = append(defects, Defect{
				Type:        DefectDisconnectedNode,
				NodeID:      n.ID,
				Description: fmt.Sprintf("node %q (%s) has no incoming edge", n.Label, n.Kind),
			})
		}
		if !n.terminal() && n.Kind != KindRunbook && len(outgoing[n.ID]) == 0 {
			defects = append(defects, Defect{
				Type:        DefectDisconnectedNode,
				NodeID:      n.ID,
				Description: fmt.Sprintf("node %q (%s) has no outgoing edge and is not terminal", n.Label, n.Kind),
			})
		}
	}

	defects = append(defects, findMergedPaths(g, outgoing)...)
	return defects
}

// findMergedPaths flags question nodes whose branch subtrees share a
// descendant. A question with multiple branches is a categorical split; its
// branches represent mutually exclusive types and must not reconverge.
func findMergedPaths(g *Graph, outgoing map[string][]string) []Defect {
	var defects []Defect
	for i := range g.Nodes {
		q := &g.Nodes[i]
		if q.Kind != KindQuestion || len(outgoing[q.ID]) < 2 {
			continue
		}

		seen := map[string]string{} // descendant node ID -> branch it was first reached from
		reported := map[string]bool{}
		for _, branch := range outgoing[q.ID] {
			for _, id := range reachableFrom(branch, outgoing) {
				first, ok := seen[id]
				if !ok {
					seen[id] = branch
					continue
				}
				if first != branch && !reported[id] {
					reported[id] = true
					defects = append(defects, Defect{
						Type:   DefectMergedPaths,
						NodeID: id,
						Description: fmt.Sprintf("branches of question %q reconverge at node %q",
							q.Label, id),
					})
				}
			}
		}
	}
	return defects
}

// reachableFrom returns every node reachable from start (inclusive),
// following outgoing edges in insertion order.
func reachableFrom(start string, outgoing map[string][]string) []string {
	visited := map[string]bool{start: true}
	order := []string{start}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range outgoing[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}
