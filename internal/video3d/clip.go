package video3d

// clipPlane is one of the six unit-cube clip-space planes (spec.md §4.6
// "clipping against the unit cube in clip space").
type clipPlane func(v clipVert) float64

var clipPlanes = []clipPlane{
	func(v clipVert) float64 { return v.w - v.x }, // x <= w
	func(v clipVert) float64 { return v.w + v.x }, // x >= -w
	func(v clipVert) float64 { return v.w - v.y }, // y <= w
	func(v clipVert) float64 { return v.w + v.y }, // y >= -w
	func(v clipVert) float64 { return v.w - v.z }, // z <= w
	func(v clipVert) float64 { return v.w + v.z }, // z >= -w
}

// clipToUnitCube runs Sutherland-Hodgman clipping against all six
// planes in turn, interpolating every vertex attribute (color, UV,
// depth) at each new intersection point.
func clipToUnitCube(verts []clipVert) []clipVert {
	poly := append([]clipVert(nil), verts...)
	for _, plane := range clipPlanes {
		if len(poly) == 0 {
			return nil
		}
		poly = clipAgainstPlane(poly, plane)
	}
	return poly
}

func clipAgainstPlane(poly []clipVert, plane clipPlane) []clipVert {
	var out []clipVert
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curD := plane(cur)
		prevD := plane(prev)
		curIn := curD >= 0
		prevIn := prevD >= 0
		if curIn != prevIn {
			out = append(out, lerpVert(prev, cur, prevD/(prevD-curD)))
		}
		if curIn {
			out = append(out, cur)
		}
	}
	return out
}

func lerpVert(a, b clipVert, t float64) clipVert {
	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	return clipVert{
		x: lerp(a.x, b.x), y: lerp(a.y, b.y), z: lerp(a.z, b.z), w: lerp(a.w, b.w),
		u: lerp(a.u, b.u), v: lerp(a.v, b.v),
		color: Color6{
			R: uint8(lerp(float64(a.color.R), float64(b.color.R))),
			G: uint8(lerp(float64(a.color.G), float64(b.color.G))),
			B: uint8(lerp(float64(a.color.B), float64(b.color.B))),
			A: uint8(lerp(float64(a.color.A), float64(b.color.A))),
		},
	}
}
