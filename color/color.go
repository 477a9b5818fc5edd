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

// Package color supports generating legible series colors and remembering
// them for the lifetime of a chart component.
//
// Charts are drawn on a dark background, so every generated color carries a
// minimum perceptual brightness (luma).  A color is generated by sampling the
// three RGB channels uniformly; if its luma falls below MinLuma the channels
// are scaled up by MinLuma/luma, clamped at 255.  Where clamping (or an
// all-black sample) leaves the color still too dark, it is blended toward
// white until the floor is met.
//
// A Table maps series keys to colors:
//
//	colors := color.NewTable(nil)
//	c := colors.ColorFor("run.log 0")
//
// The first ColorFor call for a key generates and records a color; every later
// call returns the recorded one.  Distinct keys are not guaranteed distinct
// colors.
package color

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// MinLuma is the brightness floor for generated colors, on a 0-1 scale.
	MinLuma = 0.6

	// Luma weights, scaled by 1000 so that the floor check is exact integer
	// arithmetic.
	redWeight   = 299
	greenWeight = 587
	blueWeight  = 114

	maxChannel = 255
	// maxWeightedLuma is the weighted luma of white.
	maxWeightedLuma = (redWeight + greenWeight + blueWeight) * maxChannel
	// minWeightedLuma is MinLuma expressed in weighted units.
	minWeightedLuma = maxWeightedLuma * 6 / 10
)

// Color is a 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// weightedLuma returns 1000*255*luma as an integer.
func (c Color) weightedLuma() int {
	return redWeight*int(c.R) + greenWeight*int(c.G) + blueWeight*int(c.B)
}

// Luma returns the perceptual brightness of the receiver, in [0, 1].
func (c Color) Luma() float64 {
	return float64(c.weightedLuma()) / float64(maxWeightedLuma)
}

// Legible returns true if the receiver meets the MinLuma brightness floor.
func (c Color) Legible() bool {
	return c.weightedLuma() >= minWeightedLuma
}

// Hex returns the receiver as an HTML hex color specifier, e.g. "#a1b2c3".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String returns the receiver's Hex representation.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText encodes the receiver as its hex specifier.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex specifier into the receiver.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHex parses an HTML hex color specifier of the form "#rrggbb".
func ParseHex(hex string) (Color, error) {
	if len(hex) != 7 || !strings.HasPrefix(hex, "#") {
		return Color{}, fmt.Errorf("color '%s' is not of the form #rrggbb", hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color '%s' is not of the form #rrggbb: %w", hex, err)
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Source is a source of uniformly distributed random integers.  A
// *rand.Rand satisfies it.
type Source interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// Brighten returns c raised to the MinLuma brightness floor.  Colors already
// meeting the floor are returned unchanged.
func Brighten(c Color) Color {
	if c.Legible() {
		return c
	}
	if luma := c.weightedLuma(); luma > 0 {
		factor := float64(minWeightedLuma) / float64(luma)
		scale := func(ch uint8) uint8 {
			return uint8(math.Min(maxChannel, math.Ceil(float64(ch)*factor)))
		}
		c = Color{scale(c.R), scale(c.G), scale(c.B)}
		if c.Legible() {
			return c
		}
	}
	// Scaling clamped (or had nothing to scale); blend toward white, which
	// raises luma linearly.
	luma := c.weightedLuma()
	t := float64(minWeightedLuma-luma) / float64(maxWeightedLuma-luma)
	blend := func(ch uint8) uint8 {
		return uint8(math.Min(maxChannel, float64(ch)+math.Ceil(t*float64(maxChannel-int(ch)))))
	}
	c = Color{blend(c.R), blend(c.G), blend(c.B)}
	// Rounding can only raise luma, but settle any float residue.
	for !c.Legible() {
		switch {
		case c.G < maxChannel:
			c.G++
		case c.R < maxChannel:
			c.R++
		default:
			c.B++
		}
	}
	return c
}

// Generate returns a random color meeting the MinLuma brightness floor, drawn
// from the provided Source.  A nil Source uses the global random source.
func Generate(src Source) Color {
	if src == nil {
		src = globalSource{}
	}
	return Brighten(Color{
		R: uint8(src.IntN(maxChannel + 1)),
		G: uint8(src.IntN(maxChannel + 1)),
		B: uint8(src.IntN(maxChannel + 1)),
	})
}
