package graph

import "sort"

// Graph is a collection of nodes and the connections routing values between
// their ports. A Graph must be validated before use in a run.
type Graph struct {
	Nodes       map[string]Node
	Connections []Connection
	// InputValues holds each node's constant input_values, keyed by node id
	// then port name. A connection targeting the same port overrides these
	// at resolution time; it never mutates this map.
	InputValues map[string]map[string]any
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]Node), InputValues: make(map[string]map[string]any)}
}

// AddNode registers a node under id, replacing any existing node with that
// id.
func (g *Graph) AddNode(id string, n Node) {
	if g.Nodes == nil {
		g.Nodes = make(map[string]Node)
	}
	g.Nodes[id] = n
}

// SetInputValues attaches id's constant input_values map.
func (g *Graph) SetInputValues(id string, values map[string]any) {
	if g.InputValues == nil {
		g.InputValues = make(map[string]map[string]any)
	}
	g.InputValues[id] = values
}

// AddConnection appends a connection. Deduplication by the four-tuple
// happens at Validate time, not here.
func (g *Graph) AddConnection(c Connection) {
	g.Connections = append(g.Connections, c)
}

// Validate checks every invariant from the data model and returns the
// in-degree and adjacency information the scheduler needs to drive
// execution. It never mutates g.
func (g *Graph) Validate() (*validatedGraph, error) {
	seenTargets := make(map[string]Connection, len(g.Connections))
	var deduped []Connection

	for _, c := range g.Connections {
		fromNode, ok := g.Nodes[c.FromNode]
		if !ok {
			return nil, &GraphValidationError{Reason: "connection references unknown source node " + c.FromNode}
		}
		toNode, ok := g.Nodes[c.ToNode]
		if !ok {
			return nil, &GraphValidationError{Reason: "connection references unknown target node " + c.ToNode}
		}

		_, fromOut := fromNode.Ports()
		fromDesc, ok := fromOut[c.FromPort]
		if !ok {
			return nil, &GraphValidationError{Reason: "node " + c.FromNode + " has no output port " + c.FromPort}
		}
		toIn, _ := toNode.Ports()
		toDesc, ok := toIn[c.ToPort]
		if !ok {
			return nil, &GraphValidationError{Reason: "node " + c.ToNode + " has no input port " + c.ToPort}
		}

		if !typesCompatible(fromDesc.Type, toDesc.Type) {
			return nil, &GraphValidationError{Reason: "incompatible types on connection " + c.FromNode + "." + c.FromPort + " -> " + c.ToNode + "." + c.ToPort}
		}

		key := c.targetKey()
		if prior, dup := seenTargets[key]; dup && prior != c {
			return nil, &GraphValidationError{Reason: "duplicate connection target " + c.ToNode + "." + c.ToPort, Nodes: []string{c.ToNode}}
		}
		if _, dup := seenTargets[key]; !dup {
			seenTargets[key] = c
			deduped = append(deduped, c)
		}
	}

	indegree := make(map[string]int, len(g.Nodes))
	adjacency := make(map[string][]Connection, len(g.Nodes))
	reverse := make(map[string]map[string]Connection, len(g.Nodes))
	for id := range g.Nodes {
		indegree[id] = 0
	}
	for _, c := range deduped {
		indegree[c.ToNode]++
		adjacency[c.FromNode] = append(adjacency[c.FromNode], c)
		if reverse[c.ToNode] == nil {
			reverse[c.ToNode] = make(map[string]Connection)
		}
		reverse[c.ToNode][c.ToPort] = c
	}

	order, cyclic := kahnOrder(g.Nodes, indegree, adjacency)
	if len(cyclic) > 0 {
		sort.Strings(cyclic)
		return nil, CyclicGraph(cyclic)
	}

	sources := make([]string, 0)
	for id, deg := range indegree {
		if deg == 0 {
			sources = append(sources, id)
		}
	}
	sort.Strings(sources)

	return &validatedGraph{
		graph:       g,
		indegree:    indegree,
		adjacency:   adjacency,
		reverse:     reverse,
		order:       order,
		sourceNodes: sources,
	}, nil
}

// validatedGraph is the immutable result of Validate, carrying the
// precomputed indices the scheduler and port-resolution layer need. A
// validatedGraph is safe to reuse across many runs of the same graph
// description, including repeated ForEach sub-workflow materializations
// (the node instances themselves are re-created per iteration, but the
// topology does not change).
type validatedGraph struct {
	graph       *Graph
	indegree    map[string]int
	adjacency   map[string][]Connection
	reverse     map[string]map[string]Connection // toNode -> toPort -> Connection
	order       []string
	sourceNodes []string
}

// kahnOrder runs Kahn's algorithm over a copy of indegree, returning a valid
// topological order, or the set of nodes that never reached in-degree zero
// (the cyclic remainder) when the graph contains a cycle.
func kahnOrder(nodes map[string]Node, indegree map[string]int, adjacency map[string][]Connection) (order []string, cyclic []string) {
	remaining := make(map[string]int, len(indegree))
	for id, d := range indegree {
		remaining[id] = d
	}

	var frontier []string
	for id, d := range remaining {
		if d == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		order = append(order, id)

		var next []string
		for _, c := range adjacency[id] {
			remaining[c.ToNode]--
			if remaining[c.ToNode] == 0 {
				next = append(next, c.ToNode)
			}
		}
		sort.Strings(next)
		frontier = append(frontier, next...)
	}

	if len(order) == len(nodes) {
		return order, nil
	}

	for id, d := range remaining {
		if d > 0 {
			cyclic = append(cyclic, id)
		}
	}
	return order, cyclic
}
