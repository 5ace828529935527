package registry

import (
	"fmt"
	"regexp"
	"sort"
)

// Filter narrows ListTools output. Zero-value fields are ignored; set fields
// combine with AND.
type Filter struct {
	// Tags keeps tools carrying every listed tag.
	Tags []string
	// NameRegex keeps tools whose name matches the pattern.
	NameRegex string
	// InvokableBy keeps tools that the named tool is allowed to invoke.
	InvokableBy string
}

// ListTools returns descriptors matching the filter, sorted by name. A nil
// filter returns every registered tool.
func (r *Registry) ListTools(filter *Filter) ([]Descriptor, error) {
	var nameRe *regexp.Regexp
	if filter != nil && filter.NameRegex != "" {
		re, err := regexp.Compile(filter.NameRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern: %w", err)
		}
		nameRe = re
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var caller *entry
	if filter != nil && filter.InvokableBy != "" {
		e, ok := r.tools[filter.InvokableBy]
		if !ok {
			return nil, fmt.Errorf("unknown tool in InvokableBy: %s", filter.InvokableBy)
		}
		caller = e
	}

	out := make([]Descriptor, 0, len(r.tools))
	for name, e := range r.tools {
		if nameRe != nil && !nameRe.MatchString(name) {
			continue
		}
		if filter != nil && !hasAllTags(e.desc.Tags, filter.Tags) {
			continue
		}
		if caller != nil && !caller.policy.allows(name) {
			continue
		}
		out = append(out, e.desc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}

	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}

	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
