package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const maxBoxContacts = 8

// Contact is one touching point between two bodies. Normal points from
// BodyA towards BodyB; PointA and PointB are the deepest points of each
// surface in world space.
type Contact struct {
	BodyA, BodyB   *Body
	Normal         mgl64.Vec3
	PointA, PointB mgl64.Vec3
	Depth          float64
}

// ImpactVelocityAlongNormal is the closing speed of the two surfaces along
// the normal. It is positive when BodyA moves into BodyB.
func (c *Contact) ImpactVelocityAlongNormal() float64 {
	va := c.BodyA.VelocityAtWorldPoint(c.PointA)
	vb := c.BodyB.VelocityAtWorldPoint(c.PointB)
	return c.Normal.Dot(va.Sub(vb))
}

// Other returns the body on the far side of the contact from b.
func (c *Contact) Other(b *Body) *Body {
	if c.BodyA == b {
		return c.BodyB
	}
	return c.BodyA
}

func (c Contact) flipped() Contact {
	return Contact{
		BodyA:  c.BodyB,
		BodyB:  c.BodyA,
		Normal: c.Normal.Mul(-1),
		PointA: c.PointB,
		PointB: c.PointA,
		Depth:  c.Depth,
	}
}

// collide returns the contacts between a and b, oriented from a to b.
func collide(a, b *Body) []Contact {
	if a.Shape == nil || b.Shape == nil {
		return nil
	}
	if a.Shape.Kind() > b.Shape.Kind() {
		out := collide(b, a)
		for i := range out {
			out[i] = out[i].flipped()
		}
		return out
	}

	switch sa := a.Shape.(type) {
	case *Sphere:
		switch sb := b.Shape.(type) {
		case *Sphere:
			return sphereSphere(a, b, sa, sb)
		case *Box:
			return sphereBox(a, b, sa, sb)
		case *Plane:
			return spherePlane(a, b, sa, sb)
		}
	case *Box:
		switch sb := b.Shape.(type) {
		case *Box:
			return boxBox(a, b, sa, sb)
		case *Plane:
			return boxPlane(a, b, sa, sb)
		}
	}
	return nil
}

func sphereSphere(a, b *Body, sa, sb *Sphere) []Contact {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	rsum := sa.Radius + sb.Radius
	if dist > rsum {
		return nil
	}
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	}
	return []Contact{{
		BodyA:  a,
		BodyB:  b,
		Normal: n,
		PointA: a.Position.Add(n.Mul(sa.Radius)),
		PointB: b.Position.Sub(n.Mul(sb.Radius)),
		Depth:  rsum - dist,
	}}
}

func spherePlane(a, b *Body, sa *Sphere, pl *Plane) []Contact {
	pn := pl.Normal(b.Quaternion)
	dist := a.Position.Sub(b.Position).Dot(pn)
	if dist > sa.Radius {
		return nil
	}
	return []Contact{{
		BodyA:  a,
		BodyB:  b,
		Normal: pn.Mul(-1),
		PointA: a.Position.Sub(pn.Mul(sa.Radius)),
		PointB: a.Position.Sub(pn.Mul(dist)),
		Depth:  sa.Radius - dist,
	}}
}

func sphereBox(a, b *Body, sa *Sphere, bx *Box) []Contact {
	inv := b.Quaternion.Conjugate()
	local := inv.Rotate(a.Position.Sub(b.Position))
	h := bx.HalfExtents

	var closest mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		closest[i] = local[i]
		if local[i] > h[i] {
			closest[i] = h[i]
			inside = false
		} else if local[i] < -h[i] {
			closest[i] = -h[i]
			inside = false
		}
	}

	if !inside {
		d := local.Sub(closest)
		dist := d.Len()
		if dist > sa.Radius {
			return nil
		}
		outward := b.Quaternion.Rotate(d.Mul(1 / dist))
		n := outward.Mul(-1)
		return []Contact{{
			BodyA:  a,
			BodyB:  b,
			Normal: n,
			PointA: a.Position.Add(n.Mul(sa.Radius)),
			PointB: b.Position.Add(b.Quaternion.Rotate(closest)),
			Depth:  sa.Radius - dist,
		}}
	}

	// Center inside the box: push out through the nearest face.
	axis, faceDist := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - math.Abs(local[i]); d < faceDist {
			axis, faceDist = i, d
		}
	}
	var localN mgl64.Vec3
	localN[axis] = 1
	if local[axis] < 0 {
		localN[axis] = -1
	}
	outward := b.Quaternion.Rotate(localN)
	return []Contact{{
		BodyA:  a,
		BodyB:  b,
		Normal: outward.Mul(-1),
		PointA: a.Position.Sub(outward.Mul(sa.Radius)),
		PointB: a.Position.Add(outward.Mul(faceDist)),
		Depth:  sa.Radius + faceDist,
	}}
}

func boxPlane(a, b *Body, bx *Box, pl *Plane) []Contact {
	pn := pl.Normal(b.Quaternion)
	var out []Contact
	for _, v := range bx.vertices(a.Position, a.Quaternion) {
		dist := v.Sub(b.Position).Dot(pn)
		if dist > 0 {
			continue
		}
		out = append(out, Contact{
			BodyA:  a,
			BodyB:  b,
			Normal: pn.Mul(-1),
			PointA: v,
			PointB: v.Sub(pn.Mul(dist)),
			Depth:  -dist,
		})
	}
	return out
}

// projectedRadius is the half length of the box's shadow on axis.
func projectedRadius(h mgl64.Vec3, axes [3]mgl64.Vec3, axis mgl64.Vec3) float64 {
	return math.Abs(h[0]*axes[0].Dot(axis)) +
		math.Abs(h[1]*axes[1].Dot(axis)) +
		math.Abs(h[2]*axes[2].Dot(axis))
}

func absVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Axis selection prefers faces of A, then faces of B, then edge pairs.
const (
	faceRelTolerance = 0.98
	faceAbsTolerance = 0.001
	edgeRelTolerance = 0.95
	edgeAbsTolerance = 0.01
	clipTolerance    = 1e-4
)

type satResult struct {
	overlap float64
	normal  mgl64.Vec3
	i, j    int
}

// boxBox runs a separating axis test over the face normals and edge cross
// products. Face contacts clip the incident face of one box against the
// side planes of the reference face of the other; edge contacts produce
// the closest points of the two edges.
func boxBox(a, b *Body, ba, bb *Box) []Contact {
	axA := ba.axes(a.Quaternion)
	axB := bb.axes(b.Quaternion)
	hA := absVec(ba.HalfExtents)
	hB := absVec(bb.HalfExtents)
	d := b.Position.Sub(a.Position)

	faceA := satResult{overlap: math.Inf(1)}
	for i := 0; i < 3; i++ {
		sep := d.Dot(axA[i])
		overlap := hA[i] + projectedRadius(hB, axB, axA[i]) - math.Abs(sep)
		if overlap < 0 {
			return nil
		}
		if overlap < faceA.overlap {
			faceA = satResult{overlap: overlap, normal: axA[i].Mul(sign(sep)), i: i}
		}
	}

	faceB := satResult{overlap: math.Inf(1)}
	for j := 0; j < 3; j++ {
		sep := d.Dot(axB[j])
		overlap := hB[j] + projectedRadius(hA, axA, axB[j]) - math.Abs(sep)
		if overlap < 0 {
			return nil
		}
		if overlap < faceB.overlap {
			faceB = satResult{overlap: overlap, normal: axB[j].Mul(sign(sep)), j: j}
		}
	}

	edge := satResult{overlap: math.Inf(1)}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c := axA[i].Cross(axB[j])
			if c.LenSqr() < 1e-6 {
				continue
			}
			c = c.Normalize()
			sep := d.Dot(c)
			overlap := projectedRadius(hA, axA, c) + projectedRadius(hB, axB, c) - math.Abs(sep)
			if overlap < 0 {
				return nil
			}
			if overlap < edge.overlap {
				edge = satResult{overlap: overlap, normal: c.Mul(sign(sep)), i: i, j: j}
			}
		}
	}

	face, refIsA := faceA, true
	if faceB.overlap < faceRelTolerance*faceA.overlap-faceAbsTolerance {
		face, refIsA = faceB, false
	}
	if edge.overlap < edgeRelTolerance*face.overlap-edgeAbsTolerance {
		return []Contact{edgeContact(a, b, axA, axB, hA, hB, edge)}
	}

	if refIsA {
		return faceContacts(a, b, axA, axB, hA, hB, face.i, face.normal, face.normal)
	}
	out := faceContacts(b, a, axB, axA, hB, hA, face.j, face.normal.Mul(-1), face.normal)
	for i := range out {
		out[i].BodyA, out[i].BodyB = a, b
		out[i].PointA, out[i].PointB = out[i].PointB, out[i].PointA
	}
	return out
}

// faceContacts clips the incident box's face against reference face ri of
// box ref. refN points from ref towards inc; n is the contact normal
// reported to the caller. Returned contacts have PointA on ref and PointB
// on inc.
func faceContacts(ref, inc *Body, axR, axI [3]mgl64.Vec3, hR, hI mgl64.Vec3, ri int, refN, n mgl64.Vec3) []Contact {
	// Incident face: the face of inc most opposed to refN.
	ii, best := 0, -1.0
	for j := 0; j < 3; j++ {
		if dot := math.Abs(axI[j].Dot(refN)); dot > best {
			ii, best = j, dot
		}
	}
	faceN := axI[ii].Mul(-sign(axI[ii].Dot(refN)))
	center := inc.Position.Add(faceN.Mul(hI[ii]))
	u, v := axI[(ii+1)%3].Mul(hI[(ii+1)%3]), axI[(ii+2)%3].Mul(hI[(ii+2)%3])
	poly := []mgl64.Vec3{
		center.Add(u).Add(v),
		center.Sub(u).Add(v),
		center.Sub(u).Sub(v),
		center.Add(u).Sub(v),
	}

	for _, k := range [2]int{(ri + 1) % 3, (ri + 2) % 3} {
		offset := axR[k].Dot(ref.Position)
		poly = clipPolygon(poly, axR[k], offset+hR[k])
		poly = clipPolygon(poly, axR[k].Mul(-1), -offset+hR[k])
		if len(poly) == 0 {
			return nil
		}
	}

	surface := refN.Dot(ref.Position) + hR[ri]
	out := make([]Contact, 0, len(poly))
	for _, p := range poly {
		depth := surface - refN.Dot(p)
		if depth < -clipTolerance {
			continue
		}
		out = append(out, Contact{
			BodyA:  ref,
			BodyB:  inc,
			Normal: n,
			PointA: p.Add(refN.Mul(depth)),
			PointB: p,
			Depth:  depth,
		})
	}
	if len(out) > maxBoxContacts {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
		out = out[:maxBoxContacts]
	}
	return out
}

// clipPolygon keeps the part of poly where n.p <= offset.
func clipPolygon(poly []mgl64.Vec3, n mgl64.Vec3, offset float64) []mgl64.Vec3 {
	if len(poly) == 0 {
		return nil
	}
	out := make([]mgl64.Vec3, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	prevDist := n.Dot(prev) - offset
	for _, cur := range poly {
		dist := n.Dot(cur) - offset
		if (prevDist <= 0) != (dist <= 0) {
			t := prevDist / (prevDist - dist)
			out = append(out, prev.Add(cur.Sub(prev).Mul(t)))
		}
		if dist <= 0 {
			out = append(out, cur)
		}
		prev, prevDist = cur, dist
	}
	return out
}

// edgeContact returns the closest points of the supporting edges along
// axes i of A and j of B.
func edgeContact(a, b *Body, axA, axB [3]mgl64.Vec3, hA, hB mgl64.Vec3, e satResult) Contact {
	n := e.normal
	pA := a.Position
	for k := 0; k < 3; k++ {
		if k != e.i {
			pA = pA.Add(axA[k].Mul(hA[k] * sign(axA[k].Dot(n))))
		}
	}
	pB := b.Position
	for k := 0; k < 3; k++ {
		if k != e.j {
			pB = pB.Sub(axB[k].Mul(hB[k] * sign(axB[k].Dot(n))))
		}
	}

	dA, dB := axA[e.i], axB[e.j]
	r := pA.Sub(pB)
	ab := dA.Dot(dB)
	denom := 1 - ab*ab
	var s, t float64
	if denom > 1e-12 {
		s = (ab*dB.Dot(r) - dA.Dot(r)) / denom
		t = (dB.Dot(r) - ab*dA.Dot(r)) / denom
	}
	s = mgl64.Clamp(s, -hA[e.i], hA[e.i])
	t = mgl64.Clamp(t, -hB[e.j], hB[e.j])

	return Contact{
		BodyA:  a,
		BodyB:  b,
		Normal: n,
		PointA: pA.Add(dA.Mul(s)),
		PointB: pB.Add(dB.Mul(t)),
		Depth:  e.overlap,
	}
}
