// Package mesh builds the parametric base meshes used for terrain and
// vegetation and perturbs them with noise-driven displacement so generated
// shapes read as organic rather than mathematical.
package mesh

import "github.com/go-gl/mathgl/mgl64"

// Mesh is an indexed triangle mesh. Vertex buffers produced by generation
// are treated as immutable by consumers; transforms return new meshes.
type Mesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Indices   []uint32
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Positions: make([]mgl64.Vec3, len(m.Positions)),
		Normals:   make([]mgl64.Vec3, len(m.Normals)),
		Indices:   make([]uint32, len(m.Indices)),
	}
	copy(out.Positions, m.Positions)
	copy(out.Normals, m.Normals)
	copy(out.Indices, m.Indices)
	return out
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// RecomputeNormals rebuilds per-vertex normals by accumulating area-weighted
// face normals. Degenerate faces and isolated vertices contribute nothing; a
// vertex whose accumulated normal has zero length keeps a +Y normal instead
// of dividing by zero.
func (m *Mesh) RecomputeNormals() {
	if len(m.Normals) != len(m.Positions) {
		m.Normals = make([]mgl64.Vec3, len(m.Positions))
	} else {
		for i := range m.Normals {
			m.Normals[i] = mgl64.Vec3{}
		}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		a := m.Positions[ia]
		b := m.Positions[ib]
		c := m.Positions[ic]
		// Cross product length is twice the face area, which gives the
		// area weighting for free.
		face := b.Sub(a).Cross(c.Sub(a))
		m.Normals[ia] = m.Normals[ia].Add(face)
		m.Normals[ib] = m.Normals[ib].Add(face)
		m.Normals[ic] = m.Normals[ic].Add(face)
	}

	for i := range m.Normals {
		if l := m.Normals[i].Len(); l > 1e-12 {
			m.Normals[i] = m.Normals[i].Mul(1 / l)
		} else {
			m.Normals[i] = mgl64.Vec3{0, 1, 0}
		}
	}
}
