package math

// Vector2i is an integer 2D vector, used for pixel sizes and positions.
type Vector2i struct {
	X, Y int
}

// Vector2f is a float 2D vector, used for virtual coordinates.
type Vector2f struct {
	X, Y float32
}

func NewVector2i(x, y int) Vector2i {
	return Vector2i{X: x, Y: y}
}

func NewVector2f(x, y float32) Vector2f {
	return Vector2f{X: x, Y: y}
}

func (v Vector2i) ToFloat() Vector2f {
	return Vector2f{X: float32(v.X), Y: float32(v.Y)}
}

func (v Vector2i) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vector2f) Scale(s float32) Vector2f {
	return Vector2f{X: v.X * s, Y: v.Y * s}
}

func (v Vector2f) Add(o Vector2f) Vector2f {
	return Vector2f{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2f) Sub(o Vector2f) Vector2f {
	return Vector2f{X: v.X - o.X, Y: v.Y - o.Y}
}

// Round converts to the nearest integer vector.
func (v Vector2f) Round() Vector2i {
	return Vector2i{X: RoundToInt(v.X), Y: RoundToInt(v.Y)}
}

/**
 * @brief An integer rectangle, stored as origin and size.
 */
type Rect4i struct {
	X, Y int
	W, H int
}

func NewRect4i(x, y, w, h int) Rect4i {
	return Rect4i{X: x, Y: y, W: w, H: h}
}

func (r Rect4i) Size() Vector2i {
	return Vector2i{X: r.W, Y: r.H}
}

func (r Rect4i) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

/**
 * @brief A float rectangle, stored as its top-left and bottom-right corners.
 */
type Rect4f struct {
	P1, P2 Vector2f
}

func NewRect4f(p1, p2 Vector2f) Rect4f {
	return Rect4f{P1: p1, P2: p2}
}

func (r Rect4f) Width() float32 {
	return r.P2.X - r.P1.X
}

func (r Rect4f) Height() float32 {
	return r.P2.Y - r.P1.Y
}

func (r Rect4f) Size() Vector2f {
	return r.P2.Sub(r.P1)
}

// ToRect4i rounds both corners to whole pixels.
func (r Rect4f) ToRect4i() Rect4i {
	p1 := r.P1.Round()
	p2 := r.P2.Round()
	return Rect4i{X: p1.X, Y: p1.Y, W: p2.X - p1.X, H: p2.Y - p1.Y}
}
