package parser

// detectCycles finds cycles in a component dependency graph, reported as
// an operational warning only — the core never resolves or traverses these
// edges further. Each back-edge met during the depth-first walk yields one
// cycle, as the ordered path of component names that closes the loop, so a
// single entry point can report several cycles.
func detectCycles(deps map[string][]string) [][]string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))
	var cycles [][]string

	var visit func(node string, path []string)
	visit = func(node string, path []string) {
		switch state[node] {
		case done:
			return
		case visiting:
			// Found the back-edge; report the cycle starting at its first occurrence.
			for i, n := range path {
				if n == node {
					cycle := append(append([]string{}, path[i:]...), node)
					cycles = append(cycles, cycle)
					return
				}
			}
			return
		}

		state[node] = visiting
		path = append(path, node)
		for _, next := range deps[node] {
			if _, known := deps[next]; !known {
				continue // dependency outside this sync batch, nothing to traverse
			}
			visit(next, path)
		}
		state[node] = done
	}

	for node := range deps {
		if state[node] == unvisited {
			visit(node, nil)
		}
	}
	return cycles
}
