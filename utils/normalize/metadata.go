/*
   Copyright 2026 The Tapp Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package normalize turns caller-supplied values into backend-safe forms:
// event metadata and referral URL parameters.
package normalize

import (
	"math"
	"reflect"
	"sort"
)

// Dropped records a metadata entry removed by SanitizeMetadata.
type Dropped struct {
	// Key is the metadata key.
	Key string
	// Reason is a short diagnostic, e.g. "non-finite number" or "unsupported type []int".
	Reason string
}

// SanitizeMetadata keeps string, bool and finite numeric values.
//
// Policy:
//   - string, bool: kept as is
//   - signed/unsigned ints: kept as is
//   - float32/float64: kept unless NaN or ±Inf
//   - nil, containers, structs, everything else: dropped
//
// Named types are judged by their kind (a `type Plan string` is a string).
// Dropped entries are reported sorted by key. A nil or empty input yields nil.
func SanitizeMetadata(in map[string]any) (map[string]any, []Dropped) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(in))
	var dropped []Dropped
	for k, v := range in {
		if v == nil {
			dropped = append(dropped, Dropped{Key: k, Reason: "nil value"})
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String:
			out[k] = rv.String()
		case reflect.Bool:
			out[k] = rv.Bool()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[k] = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[k] = rv.Uint()
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				dropped = append(dropped, Dropped{Key: k, Reason: "non-finite number"})
				continue
			}
			out[k] = f
		default:
			dropped = append(dropped, Dropped{Key: k, Reason: "unsupported type " + rv.Type().String()})
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Key < dropped[j].Key })
	if len(out) == 0 {
		return nil, dropped
	}
	return out, dropped
}
