package world

// Point2D is a map cell coordinate.
type Point2D struct {
	X, Y int
}

// Point3D is a map cell coordinate with elevation.
type Point3D struct {
	X, Y, Z int
}

func (p Point3D) XY() Point2D { return Point2D{X: p.X, Y: p.Y} }

// Rect2D is an inclusive-exclusive cell rectangle: X <= x < X+Width.
type Rect2D struct {
	X, Y          int
	Width, Height int
}

func (r Rect2D) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect2D) End() Point2D { return Point2D{X: r.X + r.Width, Y: r.Y + r.Height} }
