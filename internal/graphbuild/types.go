package graphbuild

// Graph is the file-level reference graph. Nodes are root-relative paths;
// an edge [from, to] means a symbol defined in to is referenced from from.
// Immutable once built; serialized verbatim for output.
type Graph struct {
	Root  string      `json:"root"`
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// UsageReport maps "path#function" identifiers to the percentage of all
// project functions that reach the function through the call graph.
// Percentages are integer-truncated (floor), never rounded up: a function
// reached by 2 of 3 functions reports 66.
type UsageReport struct {
	Root  string         `json:"root"`
	Usage map[string]int `json:"usage"`
}

// CapabilityError reports a server that cannot run this tool's query set.
// Detected once at startup; fatal.
type CapabilityError struct {
	Missing string
}

func (e *CapabilityError) Error() string {
	return "server does not advertise required capability: " + e.Missing
}
