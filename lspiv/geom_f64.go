package lspiv

import (
	"image"
	"math"
)

// Point is a 2-D position in observation coordinates (most of time in pixels)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// Sub returns vector p - other
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns vector multiplied by k
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Norm returns euclidean length of vector
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

func midpoint(p1, p2 Point) Point {
	return Point{
		X: (p1.X + p2.X) / 2.0,
		Y: (p1.Y + p2.Y) / 2.0,
	}
}
