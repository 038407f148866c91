/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Bundle operations never modify the receiver's slices in place; they return
// a bundle whose touched list is a fresh copy. This keeps snapshots held by
// undo history and by callers stable.

// Clone returns a deep copy.
func (b Bundle) Clone() Bundle {
	return Bundle{
		Dims:    cloneList(b.Dims),
		Circles: cloneList(b.Circles),
		Arrows:  cloneList(b.Arrows),
		Angles:  cloneList(b.Angles),
		Notes:   cloneList(b.Notes),
		Meta:    b.Meta,
	}
}

// Shapes returns the annotations of one kind in list order.
func (b Bundle) Shapes(k Kind) []Shape {
	switch k {
	case KindDim:
		return asShapes(b.Dims)
	case KindCircle:
		return asShapes(b.Circles)
	case KindArrow:
		return asShapes(b.Arrows)
	case KindAngle:
		return asShapes(b.Angles)
	case KindNote:
		return asShapes(b.Notes)
	}
	return nil
}

// Len returns the number of annotations of kind k.
func (b Bundle) Len(k Kind) int { return len(b.Shapes(k)) }

// Total returns the number of annotations across all kinds.
func (b Bundle) Total() int {
	return len(b.Dims) + len(b.Circles) + len(b.Arrows) + len(b.Angles) + len(b.Notes)
}

// Find looks up an annotation by kind and id.
func (b Bundle) Find(k Kind, id string) (Shape, bool) {
	for _, s := range b.Shapes(k) {
		if s.ShapeID() == id {
			return s, true
		}
	}
	return nil, false
}

// Append adds s to the end of its kind's list.
func (b Bundle) Append(s Shape) Bundle {
	switch v := s.(type) {
	case Dimension:
		b.Dims = appendCopy(b.Dims, v)
	case Circle:
		b.Circles = appendCopy(b.Circles, v)
	case Arrow:
		b.Arrows = appendCopy(b.Arrows, v)
	case AngleMarker:
		b.Angles = appendCopy(b.Angles, v)
	case Note:
		b.Notes = appendCopy(b.Notes, v)
	}
	return b
}

// Replace swaps in s for the annotation with the same kind and id. Unknown
// ids leave the bundle unchanged.
func (b Bundle) Replace(s Shape) Bundle {
	switch v := s.(type) {
	case Dimension:
		b.Dims = replaceByID(b.Dims, v)
	case Circle:
		b.Circles = replaceByID(b.Circles, v)
	case Arrow:
		b.Arrows = replaceByID(b.Arrows, v)
	case AngleMarker:
		b.Angles = replaceByID(b.Angles, v)
	case Note:
		b.Notes = replaceByID(b.Notes, v)
	}
	return b
}

// Remove deletes the annotation with kind k and id. Removing an absent id is
// a no-op.
func (b Bundle) Remove(k Kind, id string) Bundle {
	switch k {
	case KindDim:
		b.Dims = removeByID(b.Dims, id)
	case KindCircle:
		b.Circles = removeByID(b.Circles, id)
	case KindArrow:
		b.Arrows = removeByID(b.Arrows, id)
	case KindAngle:
		b.Angles = removeByID(b.Angles, id)
	case KindNote:
		b.Notes = removeByID(b.Notes, id)
	}
	return b
}

func cloneList[T any](l []T) []T {
	if l == nil {
		return nil
	}
	return append(make([]T, 0, len(l)), l...)
}

func asShapes[T Shape](l []T) []Shape {
	out := make([]Shape, len(l))
	for i, v := range l {
		out[i] = v
	}
	return out
}

func appendCopy[T any](l []T, v T) []T {
	out := make([]T, 0, len(l)+1)
	out = append(out, l...)
	return append(out, v)
}

func replaceByID[T Shape](l []T, v T) []T {
	for i, cur := range l {
		if cur.ShapeID() == v.ShapeID() {
			out := cloneList(l)
			out[i] = v
			return out
		}
	}
	return l
}

func removeByID[T Shape](l []T, id string) []T {
	for i, cur := range l {
		if cur.ShapeID() == id {
			out := make([]T, 0, len(l)-1)
			out = append(out, l[:i]...)
			return append(out, l[i+1:]...)
		}
	}
	return l
}
