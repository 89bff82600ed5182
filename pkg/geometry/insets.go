package geometry

// EdgeInsets describes padding or margins for each side of a box.
type EdgeInsets struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// EdgeInsetsAll creates insets with the same value on all four sides.
func EdgeInsetsAll(value float64) EdgeInsets {
	return EdgeInsets{Left: value, Top: value, Right: value, Bottom: value}
}

// EdgeInsetsSymmetric creates insets with horizontal and vertical values.
func EdgeInsetsSymmetric(horizontal, vertical float64) EdgeInsets {
	return EdgeInsets{Left: horizontal, Top: vertical, Right: horizontal, Bottom: vertical}
}

// EdgeInsetsOnly creates insets with individual side values.
func EdgeInsetsOnly(left, top, right, bottom float64) EdgeInsets {
	return EdgeInsets{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Horizontal returns the combined left and right insets.
func (e EdgeInsets) Horizontal() float64 {
	return e.Left + e.Right
}

// Vertical returns the combined top and bottom insets.
func (e EdgeInsets) Vertical() float64 {
	return e.Top + e.Bottom
}

// IsZero returns true if all four sides are zero.
func (e EdgeInsets) IsZero() bool {
	return e == EdgeInsets{}
}

// Deflate shrinks the rectangle inward by the insets. The result never
// inverts: if the insets exceed the rect, the affected dimension collapses
// to the rect center.
func (e EdgeInsets) Deflate(r Rect) Rect {
	left := r.Left + e.Left
	top := r.Top + e.Top
	right := r.Right - e.Right
	bottom := r.Bottom - e.Bottom
	if left > right {
		mid := (r.Left + r.Right) * 0.5
		left, right = mid, mid
	}
	if top > bottom {
		mid := (r.Top + r.Bottom) * 0.5
		top, bottom = mid, mid
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}
