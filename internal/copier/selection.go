package copier

// DragSelector is the drag-to-select state machine for the grid:
// Idle -> Dragging(value) -> Idle. Pointer-down on a cell captures the
// value to paint; entering further cells while dragging applies it;
// pointer-up ends the drag. It is independent of any pointer-event API:
// the handlers feed it explicit actions.
type DragSelector struct {
	dragging bool
	value    bool
}

// PointerDown starts a drag painting the given value.
func (d *DragSelector) PointerDown(value bool) {
	d.dragging = true
	d.value = value
}

// PointerEnter reports the value to apply to the entered cell. The second
// return is false when no drag is active and the enter should be ignored.
func (d *DragSelector) PointerEnter() (value, active bool) {
	if !d.dragging {
		return false, false
	}
	return d.value, true
}

// PointerUp ends the drag.
func (d *DragSelector) PointerUp() {
	d.dragging = false
}

// Dragging reports whether a drag is in progress.
func (d *DragSelector) Dragging() bool {
	return d.dragging
}
