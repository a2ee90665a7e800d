package inject

import "sort"

// Tag labels registrations and containers. A registration is bound into a
// container only when their tag sets intersect.
type Tag string

// DefaultTag is applied to registrations that declare no tags and is the only
// tag of a container created without WithTags.
const DefaultTag Tag = "DEFAULT"

type tagSet map[Tag]struct{}

func newTagSet(tags []Tag) tagSet {
	set := make(tagSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func (s tagSet) has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// intersects reports whether any of tags is a member of s.
func (s tagSet) intersects(tags []Tag) bool {
	for _, t := range tags {
		if s.has(t) {
			return true
		}
	}
	return false
}

func (s tagSet) sorted() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
