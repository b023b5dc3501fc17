package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid builds a flat (size x size) plane in the XZ plane, centered at the
// origin, split into segments cells per side. It has (segments+1)^2
// vertices; heights are applied afterwards by the composer.
func Grid(size float64, segments int) *Mesh {
	if segments < 1 {
		segments = 1
	}
	side := segments + 1
	m := &Mesh{
		Positions: make([]mgl64.Vec3, 0, side*side),
		Indices:   make([]uint32, 0, segments*segments*6),
	}
	half := size / 2
	step := size / float64(segments)

	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			x := -half + float64(col)*step
			z := -half + float64(row)*step
			m.Positions = append(m.Positions, mgl64.Vec3{x, 0, z})
		}
	}

	for row := 0; row < segments; row++ {
		for col := 0; col < segments; col++ {
			a := uint32(row*side + col)
			b := a + 1
			c := a + uint32(side)
			d := c + 1
			m.Indices = append(m.Indices, a, c, b, b, c, d)
		}
	}

	m.RecomputeNormals()
	return m
}

// Sphere builds a UV sphere of the given radius centered at the origin.
func Sphere(radius float64, widthSegments, heightSegments int) *Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	m := &Mesh{}

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		phi := v * math.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			theta := u * 2 * math.Pi
			x := -radius * math.Cos(theta) * math.Sin(phi)
			y := radius * math.Cos(phi)
			z := radius * math.Sin(theta) * math.Sin(phi)
			m.Positions = append(m.Positions, mgl64.Vec3{x, y, z})
		}
	}

	stride := widthSegments + 1
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy*stride + ix)
			b := a + uint32(stride)
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, a+1)
			}
			if iy != heightSegments-1 {
				m.Indices = append(m.Indices, a+1, b, b+1)
			}
		}
	}

	m.RecomputeNormals()
	return m
}

// Cone builds an open cone with its base on y=0 and apex at y=height.
func Cone(radius, height float64, radialSegments, heightSegments int) *Mesh {
	return Cylinder(0, radius, height, radialSegments, heightSegments)
}

// Cylinder builds a lathed tube from radiusBottom at y=0 to radiusTop at
// y=height. A zero radius at either end collapses that ring to a point,
// which is how Cone reuses it.
func Cylinder(radiusTop, radiusBottom, height float64, radialSegments, heightSegments int) *Mesh {
	if radialSegments < 3 {
		radialSegments = 3
	}
	if heightSegments < 1 {
		heightSegments = 1
	}
	m := &Mesh{}

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		radius := radiusBottom + (radiusTop-radiusBottom)*v
		y := v * height
		for ix := 0; ix <= radialSegments; ix++ {
			u := float64(ix) / float64(radialSegments)
			theta := u * 2 * math.Pi
			m.Positions = append(m.Positions, mgl64.Vec3{
				radius * math.Cos(theta),
				y,
				radius * math.Sin(theta),
			})
		}
	}

	stride := radialSegments + 1
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < radialSegments; ix++ {
			a := uint32(iy*stride + ix)
			b := a + uint32(stride)
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}

	m.RecomputeNormals()
	return m
}
