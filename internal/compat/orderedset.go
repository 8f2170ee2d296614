package compat

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet(values []string) *orderedSet {
	s := &orderedSet{index: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.add(v)
	}
	return s
}

func (s *orderedSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// intersect returns the members of s also in other, in s's order.
func (s *orderedSet) intersect(other *orderedSet) []string {
	out := make([]string, 0)
	for _, v := range s.items {
		if other.has(v) {
			out = append(out, v)
		}
	}
	return out
}
