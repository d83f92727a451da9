package airport

import (
	"container/heap"
	"fmt"

	"github.com/yegors/ground-atc/pkg/types"
)

// Path returns the node ids of the shortest taxi route from one node to another, both inclusive.
func (m *Model) Path(from, to string) ([]string, error) {
	if _, ok := m.nodes[from]; !ok {
		return nil, fmt.Errorf("unknown node: %s", from)
	}
	if _, ok := m.nodes[to]; !ok {
		return nil, fmt.Errorf("unknown node: %s", to)
	}
	if from == to {
		return []string{from}, nil
	}

	dist := map[string]float64{from: 0}
	prev := make(map[string]string)
	visited := make(map[string]bool)

	pq := &nodeQueue{}
	heap.Push(pq, queuedNode{id: from, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(queuedNode)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		if cur.id == to {
			break
		}

		here := m.nodes[cur.id].Position
		for _, next := range m.adj[cur.id] {
			if visited[next] {
				continue
			}
			d := cur.dist + here.DistanceTo(m.nodes[next].Position)
			if old, seen := dist[next]; !seen || d < old {
				dist[next] = d
				prev[next] = cur.id
				heap.Push(pq, queuedNode{id: next, dist: d})
			}
		}
	}

	if !visited[to] {
		return nil, fmt.Errorf("no taxi route from %s to %s", from, to)
	}

	var path []string
	for at := to; ; at = prev[at] {
		path = append(path, at)
		if at == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Route is Path expressed as positions
func (m *Model) Route(from, to string) ([]types.Vec2, error) {
	ids, err := m.Path(from, to)
	if err != nil {
		return nil, err
	}
	points := make([]types.Vec2, len(ids))
	for i, id := range ids {
		points[i] = m.nodes[id].Position
	}
	return points, nil
}

type queuedNode struct {
	id   string
	dist float64
}

// nodeQueue is a min-heap on distance, ties broken by id so routes are stable.
type nodeQueue []queuedNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist == q[j].dist {
		return q[i].id < q[j].id
	}
	return q[i].dist < q[j].dist
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queuedNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
