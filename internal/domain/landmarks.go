/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

var builtinLandmarks = []Landmark{
	{Key: "neck", Label: "Neck", Default: FixedPos{X: 50, Y: 8}},
	{Key: "shoulder", Label: "Shoulder", Default: FixedPos{X: 72, Y: 14}},
	{Key: "chest", Label: "Chest", Default: FixedPos{X: 50, Y: 28}},
	{Key: "armhole", Label: "Armhole", Default: FixedPos{X: 70, Y: 26}},
	{Key: "bicep", Label: "Bicep", Default: FixedPos{X: 84, Y: 32}},
	{Key: "sleeve", Label: "Sleeve", Default: FixedPos{X: 88, Y: 45}},
	{Key: "cuff", Label: "Cuff", Default: FixedPos{X: 90, Y: 60}},
	{Key: "waist", Label: "Waist", Default: FixedPos{X: 50, Y: 45}},
	{Key: "hip", Label: "Hip", Default: FixedPos{X: 50, Y: 58}},
	{Key: "length", Label: "Length", Default: FixedPos{X: 30, Y: 70}},
	{Key: "thigh", Label: "Thigh", Default: FixedPos{X: 40, Y: 66}},
	{Key: "knee", Label: "Knee", Default: FixedPos{X: 40, Y: 78}},
	{Key: "bottom", Label: "Bottom", Default: FixedPos{X: 40, Y: 95}},
	{Key: "inseam", Label: "Inseam", Default: FixedPos{X: 52, Y: 80}},
}

// BuiltinLandmarks returns a copy of the hardcoded landmark set.
func BuiltinLandmarks() []Landmark { return append([]Landmark(nil), builtinLandmarks...) }

// ResolveLandmarks filters the built-in set by allowed keys (nil shows all,
// an empty non-nil list shows none) and appends diagram-specific extras. An
// extra with the key of a built-in replaces it in place.
func ResolveLandmarks(allowed []string, extra []Landmark) []Landmark {
	var out []Landmark
	if allowed == nil {
		out = BuiltinLandmarks()
	} else {
		keep := make(map[string]bool, len(allowed))
		for _, k := range allowed {
			keep[k] = true
		}
		for _, l := range builtinLandmarks {
			if keep[l.Key] {
				out = append(out, l)
			}
		}
	}
	for _, e := range extra {
		if e.Key == "" {
			continue
		}
		replaced := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

// PositionOf returns the override for l from fixed, or its default.
func PositionOf(l Landmark, fixed map[string]FixedPos) FixedPos {
	if p, ok := fixed[l.Key]; ok {
		return p
	}
	return l.Default
}
