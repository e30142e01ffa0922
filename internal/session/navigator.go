package session

// Navigator owns the focused index into a vehicle's content items and the
// reset flag that forces a review state rebuild.
type Navigator struct {
	index int
	count int
	reset bool
}

// NewNavigator creates a navigator over count items focused on the first.
func NewNavigator(count int) *Navigator {
	n := &Navigator{}
	n.Resize(count)
	return n
}

// Index returns the focused index.
func (n *Navigator) Index() int { return n.index }

// Len returns the number of items.
func (n *Navigator) Len() int { return n.count }

// ResetFlag returns the current reset flag. Its value carries no meaning;
// only its changes do.
func (n *Navigator) ResetFlag() bool { return n.reset }

// HasNext reports whether an item follows the focused one.
func (n *Navigator) HasNext() bool { return n.index+1 < n.count }

// HasPrev reports whether an item precedes the focused one.
func (n *Navigator) HasPrev() bool { return n.index > 0 }

// Advance moves to the next item if there is one. The reset flag flips
// either way.
func (n *Navigator) Advance() bool {
	n.reset = !n.reset
	if !n.HasNext() {
		return false
	}
	n.index++
	return true
}

// Retreat moves to the previous item if there is one. The reset flag flips
// either way.
func (n *Navigator) Retreat() bool {
	n.reset = !n.reset
	if !n.HasPrev() {
		return false
	}
	n.index--
	return true
}

// Focus jumps to index i. Out of range indexes are ignored.
func (n *Navigator) Focus(i int) bool {
	if i < 0 || i >= n.count {
		return false
	}
	n.reset = !n.reset
	n.index = i
	return true
}

// Resize updates the item count, clamping the index into range.
func (n *Navigator) Resize(count int) {
	if count < 0 {
		count = 0
	}
	n.count = count
	if n.index >= count {
		n.index = max(count-1, 0)
	}
}
