// Package fixed implements the 16.16 fixed-point arithmetic and binary angles
// used by Doom's map format and renderer.
package fixed

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Fixed is a signed 16.16 fixed-point number: the represented value times 65536.
type Fixed int32

// Angle is a binary angle. The full uint16 range is one turn, so wrap-around is
// plain unsigned overflow.
type Angle uint16

const (
	FracBits = 16
	FracUnit = 1 << FracBits
)

// Common binary angles
const (
	Angle0   Angle = 0
	Angle90  Angle = 0x4000
	Angle180 Angle = 0x8000
	Angle270 Angle = 0xC000
)

// FromInt converts an integer map unit to fixed point.
func FromInt[T constraints.Integer](n T) Fixed {
	return Fixed(int32(n) << FracBits)
}

// FromFloat converts a real value to fixed point, truncating.
func FromFloat[T constraints.Float](f T) Fixed {
	return Fixed(float64(f) * FracUnit)
}

// Int returns the integer part, rounded toward negative infinity.
func (f Fixed) Int() int {
	return int(f >> FracBits)
}

// Float returns f as a float64.
func (f Fixed) Float() float64 {
	return float64(f) / FracUnit
}

// Mul multiplies two fixed-point numbers. Overflow wraps silently.
func Mul(a, b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> FracBits)
}

// Div divides a by b. A zero divisor panics with the runtime's integer divide
// error.
func Div(a, b Fixed) Fixed {
	return Fixed((int64(a) << FracBits) / int64(b))
}

// Radians converts a binary angle to radians in [0, 2π).
func (a Angle) Radians() float64 {
	return float64(a) / (1 << 16) * 2 * math.Pi
}

// Degrees converts a binary angle to degrees in [0, 360).
func (a Angle) Degrees() float64 {
	return float64(a) / (1 << 16) * 360
}

// AngleFromDegrees converts degrees to the nearest lower binary angle. Values
// outside [0, 360) wrap.
func AngleFromDegrees[T constraints.Integer | constraints.Float](d T) Angle {
	turns := float64(d) / 360
	turns -= math.Floor(turns)
	return Angle(uint32(turns*(1<<16)) & 0xFFFF)
}

// Direction returns the unit vector for angle a in fixed point. The
// trigonometry is done in single precision and the scaled result truncated,
// so every angle maps to the same vector Doom-era renderers produce.
func Direction(a Angle) (x, y Fixed) {
	f := float32(a) / 0x10000 * math.Pi * 2
	cos := float32(math.Cos(float64(f)))
	sin := float32(math.Sin(float64(f)))
	return Fixed(cos * FracUnit), Fixed(sin * FracUnit)
}
