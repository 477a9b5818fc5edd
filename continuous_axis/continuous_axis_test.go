/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package continuousaxis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAxis(t *testing.T) {
	type bounds struct {
		Min, Max float64
	}
	for _, test := range []struct {
		description string
		axis        *Axis
		wantBounds  bounds
	}{{
		description: "no extents",
		axis:        NewLinearAxis(),
		wantBounds:  bounds{0, 1},
	}, {
		description: "several extents",
		axis:        NewLinearAxis(3, -2, 10, 4),
		wantBounds:  bounds{-2, 10},
	}, {
		description: "lone extent is padded",
		axis:        NewLinearAxis(20, 20),
		wantBounds:  bounds{19, 21},
	}, {
		description: "lone zero extent is padded by one",
		axis:        NewLinearAxis(0),
		wantBounds:  bounds{-1, 1},
	}, {
		description: "non-finite extents are skipped",
		axis:        NewLinearAxis(math.NaN(), 1, math.Inf(1), 5, math.Inf(-1)),
		wantBounds:  bounds{1, 5},
	}, {
		description: "only non-finite extents",
		axis:        NewLinearAxis(math.NaN(), math.Inf(-1)),
		wantBounds:  bounds{0, 1},
	}, {
		description: "extended",
		axis:        NewLinearAxis(1).Extend(7, -3),
		wantBounds:  bounds{-3, 7},
	}} {
		t.Run(test.description, func(t *testing.T) {
			var gotBounds bounds
			gotBounds.Min, gotBounds.Max = test.axis.Bounds()
			if diff := cmp.Diff(test.wantBounds, gotBounds); diff != "" {
				t.Errorf("Bounds() diff (-want +got) %s", diff)
			}
		})
	}
}
