/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package units converts measurement field values between centimetres and
// inches. Values stay text so a half-typed number is passed through untouched.
package units

import (
	"strconv"
	"strings"
)

const (
	CM = "cm"
	IN = "in"

	cmPerInch = 2.54
)

// Normalize maps user spellings to CM or IN; unknown units return "".
func Normalize(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
		return CM
	case "in", "inch", "inches", `"`:
		return IN
	}
	return ""
}

// Convert rewrites a numeric value from one unit to the other with two
// decimals. Empty, non-numeric or same-unit input is returned unchanged.
func Convert(value, from, to string) string {
	from, to = Normalize(from), Normalize(to)
	if from == "" || to == "" || from == to {
		return value
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	if from == CM {
		v /= cmPerInch
	} else {
		v *= cmPerInch
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ConvertValues converts every field of a value map and returns a new map.
func ConvertValues(values map[string]string, from, to string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Convert(v, from, to)
	}
	return out
}
