package dependencies

// DependencyGraph holds the direct dependencies of a project and, for each of
// them, the packages reachable only through it. Buckets keep discovery order.
type DependencyGraph struct {
	registry   *Registry
	direct     []PackageName
	transitive map[PackageName][]PackageName
}

// BuildGraph walks the registry once per direct dependency. Each walk keeps
// its own visited set seeded with the root, so cycles terminate and a package
// enters a bucket at most once. Direct dependencies are traversed through but
// never recorded as transitive, and unknown names are skipped.
func BuildGraph(r *Registry) *DependencyGraph {
	g := &DependencyGraph{
		registry:   r,
		direct:     r.DirectNames(),
		transitive: make(map[PackageName][]PackageName, len(r.direct)),
	}

	isDirect := make(map[PackageName]bool, len(g.direct))
	for _, d := range g.direct {
		isDirect[d] = true
	}

	for _, root := range g.direct {
		visited := map[PackageName]bool{root: true}
		queue := []PackageName{root}
		bucket := []PackageName{}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			pkg, ok := r.Get(current)
			if !ok {
				continue
			}
			for _, dep := range pkg.deps {
				name := PackageName(dep)
				if visited[name] || !r.Has(dep) {
					continue
				}
				visited[name] = true
				if !isDirect[name] {
					bucket = append(bucket, name)
				}
				queue = append(queue, name)
			}
		}
		g.transitive[root] = bucket
	}

	return g
}

// Registry returns the package table the graph was built from.
func (g *DependencyGraph) Registry() *Registry { return g.registry }

// DirectNames returns the direct dependencies in declaration order.
func (g *DependencyGraph) DirectNames() []PackageName {
	return append([]PackageName(nil), g.direct...)
}

// Transitive returns the bucket for one direct dependency.
func (g *DependencyGraph) Transitive(direct PackageName) []PackageName {
	return append([]PackageName(nil), g.transitive[direct]...)
}

// TransitiveByDirect returns a copy of every bucket keyed by direct dependency.
func (g *DependencyGraph) TransitiveByDirect() map[PackageName][]PackageName {
	out := make(map[PackageName][]PackageName, len(g.transitive))
	for k, v := range g.transitive {
		out[k] = append([]PackageName(nil), v...)
	}
	return out
}

// TransitiveNames returns the union of all buckets, each name once, in
// direct-dependency order.
func (g *DependencyGraph) TransitiveNames() []PackageName {
	seen := make(map[PackageName]bool)
	var out []PackageName
	for _, d := range g.direct {
		for _, name := range g.transitive[d] {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
