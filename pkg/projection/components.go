package projection

// Components labels the connected components of g.
// labels[i] is the component of node i; components are numbered from 0 in
// order of their smallest node id. Isolated nodes form their own component.
func Components(g *Graph) (labels []int, count int) {
	n := g.NodeCount()
	labels = make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	queue := make([]int32, 0, n)
	for s := range n {
		if labels[s] >= 0 {
			continue
		}
		labels[s] = count
		queue = append(queue[:0], int32(s))
		for head := 0; head < len(queue); head++ {
			for _, w := range g.NeighborIDs(int(queue[head])) {
				if labels[w] < 0 {
					labels[w] = count
					queue = append(queue, w)
				}
			}
		}
		count++
	}
	return labels, count
}

// ComponentSizes returns the node count of every component, indexed by label.
func ComponentSizes(g *Graph) []int {
	labels, count := Components(g)
	sizes := make([]int, count)
	for _, c := range labels {
		sizes[c]++
	}
	return sizes
}
