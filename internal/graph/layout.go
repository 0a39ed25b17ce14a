package graph

// Layout geometry in the synthetic coordinate space the renderer consumes.
const (
	nodeWidth       = 240.0
	nodeHeight      = 120.0
	horizontalGap   = 60.0
	verticalSpacing = 80.0
)

// AssignLayout decorates every node with a hierarchical depth and 2-D
// position, in place.
//
// Roots are the nodes with no incoming edge. A single BFS runs from all
// roots simultaneously; a node's depth is the level of its first visit, with
// ties broken by insertion order (roots in node order, children in edge
// order), so the result is reproducible from the same input. Within each
// depth level nodes are spaced evenly and centered around x=0; y grows with
// depth. Nodes deeper than level 1 start collapsed.
//
// Total by construction: nodes BFS never reaches keep depth 0 and (0,0).
// An uncovered node means upstream connectivity validation failed, not a
// layout bug.
func AssignLayout(g *Graph) {
	if g.IsEmpty() {
		return
	}

	index := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = i
	}

	hasIncoming := make(map[string]bool, len(g.Nodes))
	outgoing := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := index[e.Source]; !ok {
			continue
		}
		if _, ok := index[e.Target]; !ok {
			continue
		}
		hasIncoming[e.Target] = true
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	depth := make(map[string]int, len(g.Nodes))
	var queue []string
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if !hasIncoming[id] {
			depth[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range outgoing[cur] {
			if _, visited := depth[next]; visited {
				continue // first visit wins
			}
			depth[next] = depth[cur] + 1
			queue = append(queue, next)
		}
	}

	// Group by depth, preserving node order within each level.
	levels := map[int][]int{}
	maxDepth := 0
	for i := range g.Nodes {
		d := depth[g.Nodes[i].ID] // unvisited nodes default to 0
		levels[d] = append(levels[d], i)
		if d > maxDepth {
			maxDepth = d
		}
	}

	for d := 0; d <= maxDepth; d++ {
		row := levels[d]
		n := len(row)
		for pos, i := range row {
			node := &g.Nodes[i]
			node.Depth = d
			node.X = (float64(pos) - float64(n-1)/2) * (nodeWidth + horizontalGap)
			node.Y = float64(d) * (nodeHeight + verticalSpacing)
			node.Collapsed = d > 1
		}
	}
}
