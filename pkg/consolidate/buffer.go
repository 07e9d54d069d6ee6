package consolidate

import (
	"fmt"
	"image"
	"strings"
)

// Policy grows a buffer around cloud pixels. Mark reads cloud for every pixel of
// win (row-major) and sets mark for every pixel of win inside the buffer. Pixels
// farther than Reach from a tile can never influence it, so a halo of Reach
// pixels makes the result independent of the tiling.
type Policy interface {
	Mark(cloud []bool, win image.Rectangle, mark []bool)
	Reach() int
}

// marker clips rectangles to a window and sets them in a mark grid.
type marker struct {
	win  image.Rectangle
	mark []bool
}

// fill marks the inclusive rectangle [l, r] x [t, b].
func (m marker) fill(l, t, r, b int) {
	l = max(l, m.win.Min.X)
	t = max(t, m.win.Min.Y)
	r = min(r, m.win.Max.X-1)
	b = min(b, m.win.Max.Y-1)
	w := m.win.Dx()
	for y := t; y <= b; y++ {
		row := (y - m.win.Min.Y) * w
		for x := l; x <= r; x++ {
			m.mark[row+x-m.win.Min.X] = true
		}
	}
}

// Fixed marks a square of the configured width around every cloud pixel.
type Fixed struct {
	Width int
}

// Reach implements Policy.
func (f Fixed) Reach() int { return f.Width }

// Mark implements Policy.
func (f Fixed) Mark(cloud []bool, win image.Rectangle, mark []bool) {
	m := marker{win: win, mark: mark}
	w := win.Dx()
	for y := win.Min.Y; y < win.Max.Y; y++ {
		row := (y - win.Min.Y) * w
		for x := win.Min.X; x < win.Max.X; x++ {
			if cloud[row+x-win.Min.X] {
				m.fill(x-f.Width, y-f.Width, x+f.Width, y+f.Width)
			}
		}
	}
}

// Adaptive widens the buffer where clouds are compact. A cloud pixel whose forward
// 2x2 block is entirely cloud gets a buffer of Width+1 around that block, any other
// cloud pixel a square of Width around itself.
type Adaptive struct {
	Width int
}

// Reach implements Policy. A block buffer extends Width+2 pixels right of and below
// the anchor pixel.
func (a Adaptive) Reach() int { return a.Width + 2 }

// Mark implements Policy.
func (a Adaptive) Mark(cloud []bool, win image.Rectangle, mark []bool) {
	if win.Empty() {
		return
	}
	m := marker{win: win, mark: mark}
	w := win.Dx()
	at := func(x, y int) bool {
		return cloud[(y-win.Min.Y)*w+x-win.Min.X]
	}
	x0, y0 := win.Min.X, win.Min.Y
	x1, y1 := win.Max.X-1, win.Max.Y-1
	bw := a.Width
	wide := a.Width + 1

	// main scan, the last row and column lack lookahead neighbours
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !at(x, y) {
				continue
			}
			if at(x+1, y) && at(x, y+1) && at(x+1, y+1) {
				m.fill(x-wide, y-wide, x+1+wide, y+1+wide)
			} else {
				m.fill(x-bw, y-bw, x+bw, y+bw)
			}
		}
	}

	// bottom row: up, left and right only
	for x := x0; x < x1; x++ {
		if at(x, y1) {
			m.fill(x-bw, y1-bw, x+bw, y1)
		}
	}

	// right column: up, down and left only
	for y := y0; y < y1; y++ {
		if at(x1, y) {
			m.fill(x1-bw, y-bw, x1, y+bw)
		}
	}

	// bottom-right corner
	if at(x1, y1) {
		m.fill(x1-bw, y1-bw, x1, y1)
	}
}

// NewPolicy builds a policy by name ("adaptive" or "fixed").
func NewPolicy(name string, width int) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "adaptive":
		if width <= 0 {
			return nil, fmt.Errorf("adaptive buffer width must be positive, got %d", width)
		}
		return Adaptive{Width: width}, nil
	case "fixed":
		if width < 0 {
			return nil, fmt.Errorf("fixed buffer width must not be negative, got %d", width)
		}
		return Fixed{Width: width}, nil
	}
	return nil, fmt.Errorf("unknown buffer policy %q", name)
}
