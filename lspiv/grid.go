package lspiv

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Cell is a discrete grid coordinate
type Cell struct {
	Col int
	Row int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Grid partitions a Width x Height domain into Columns x Rows cells. Immutable.
type Grid struct {
	width   float64
	height  float64
	columns int
	rows    int
	cellW   float64
	cellH   float64
}

// NewGrid creates new instance of Grid
func NewGrid(width, height float64, columns, rows int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, errors.Wrapf(ErrConfiguration, "grid domain must be positive, got %vx%v", width, height)
	}
	if columns < 1 || rows < 1 {
		return Grid{}, errors.Wrapf(ErrConfiguration, "grid dimensions must be positive, got %dx%d", columns, rows)
	}
	return Grid{
		width:   width,
		height:  height,
		columns: columns,
		rows:    rows,
		cellW:   width / float64(columns),
		cellH:   height / float64(rows),
	}, nil
}

// MustNewGrid is like NewGrid but panics on invalid arguments
func MustNewGrid(width, height float64, columns, rows int) Grid {
	g, err := NewGrid(width, height, columns, rows)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Grid) Width() float64  { return g.width }
func (g Grid) Height() float64 { return g.height }
func (g Grid) Columns() int    { return g.columns }
func (g Grid) Rows() int       { return g.rows }

// Bin maps point to its cell. Points outside of the domain (and NaN coordinates)
// are clamped to the nearest border cell.
func (g Grid) Bin(p Point) Cell {
	return Cell{
		Col: clampIndex(p.X/g.cellW, g.columns),
		Row: clampIndex(p.Y/g.cellH, g.rows),
	}
}

// Contains reports whether point lies inside [0, Width) x [0, Height)
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

func clampIndex(v float64, n int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	idx := math.Floor(v)
	if idx >= float64(n) {
		return n - 1
	}
	return int(idx)
}
