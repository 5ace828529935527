package registry

import "sort"

// Wildcard grants a tool permission to invoke every registered tool,
// including itself.
const Wildcard = "*"

// invokePolicy is the compiled form of a descriptor's CanInvoke list: either
// the wildcard or a concrete name set. Compiled once at registration so the
// permission check is a plain set lookup.
type invokePolicy struct {
	all   bool
	names map[string]struct{}
}

func compilePolicy(canInvoke []string) invokePolicy {
	p := invokePolicy{names: make(map[string]struct{}, len(canInvoke))}
	for _, name := range canInvoke {
		if name == Wildcard {
			p.all = true
			continue
		}
		p.names[name] = struct{}{}
	}
	return p
}

func (p invokePolicy) allows(name string) bool {
	if p.all {
		return true
	}
	_, ok := p.names[name]
	return ok
}

// CapabilityMatrix returns, for every registered tool, its fully expanded
// invokeable set. The wildcard resolves to all registered names, including
// the tool itself. Sets are sorted for stable output.
func (r *Registry) CapabilityMatrix() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]string, 0, len(r.tools))
	for name := range r.tools {
		all = append(all, name)
	}
	sort.Strings(all)

	matrix := make(map[string][]string, len(r.tools))
	for name, e := range r.tools {
		if e.policy.all {
			expanded := make([]string, len(all))
			copy(expanded, all)
			matrix[name] = expanded
			continue
		}

		names := make([]string, 0, len(e.policy.names))
		for callee := range e.policy.names {
			names = append(names, callee)
		}
		sort.Strings(names)
		matrix[name] = names
	}

	return matrix
}
