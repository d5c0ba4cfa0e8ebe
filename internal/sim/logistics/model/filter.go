package model

// ItemFilter is either All (any item) or Only(set). The zero value is All.
type ItemFilter struct {
	only map[Item]struct{}
}

func FilterAll() ItemFilter { return ItemFilter{} }

// FilterOnly builds an allow-list. An empty list still means "only these",
// i.e. nothing is accepted.
func FilterOnly(items ...Item) ItemFilter {
	m := make(map[Item]struct{}, len(items))
	for _, it := range items {
		if it.IsZero() {
			continue
		}
		m[it] = struct{}{}
	}
	return ItemFilter{only: m}
}

func (f ItemFilter) IsAll() bool { return f.only == nil }

func (f ItemFilter) Allows(item Item) bool {
	if item.IsZero() {
		return false
	}
	if f.only == nil {
		return true
	}
	_, ok := f.only[item]
	return ok
}

// Items returns the allow-list sorted by name, or nil for All.
func (f ItemFilter) Items() []Item {
	if f.only == nil {
		return nil
	}
	out := make([]Item, 0, len(f.only))
	for it := range f.only {
		out = append(out, it)
	}
	return SortItems(out)
}

// Intersect narrows f to items also allowed by other.
func (f ItemFilter) Intersect(other ItemFilter) ItemFilter {
	switch {
	case f.IsAll():
		return other
	case other.IsAll():
		return f
	}
	out := make([]Item, 0, len(f.only))
	for it := range f.only {
		if other.Allows(it) {
			out = append(out, it)
		}
	}
	return FilterOnly(out...)
}

func (f ItemFilter) Equal(other ItemFilter) bool {
	if f.IsAll() || other.IsAll() {
		return f.IsAll() == other.IsAll()
	}
	if len(f.only) != len(other.only) {
		return false
	}
	for it := range f.only {
		if _, ok := other.only[it]; !ok {
			return false
		}
	}
	return true
}
