// Package step implements the Collatz step function and stopping-time count.
//
// The step rule is the classic "hailstone" map:
//
//	odd  n -> 3n + 1
//	even n -> n >> 1
//
// The stopping time of n is the number of steps needed to reach 1.
// StoppingTime(1) is 0.
//
// Trajectories can climb far above their starting value (27 peaks at 9232),
// so all arithmetic is done in uint64. Checked additionally detects the
// 3n+1 step overflowing 64 bits, which cannot happen for any starting value
// below 2^60 that has been verified.
package step

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrZero is returned for a starting value of 0, which never reaches 1.
	ErrZero = errors.New("stopping time undefined for 0")

	// ErrOverflow is returned when 3n+1 does not fit in 64 bits.
	ErrOverflow = errors.New("collatz trajectory overflows uint64")
)

// StoppingTime returns the number of steps for v to reach 1.
//
// v must be at least 1. It panics on 0 or on a trajectory that overflows
// uint64; callers feeding untrusted input should use Checked.
func StoppingTime(v uint64) uint32 {
	n, err := Checked(v)
	if err != nil {
		panic(fmt.Sprintf("step: StoppingTime(%d): %v", v, err))
	}

	return n
}

// Checked is StoppingTime with explicit error reporting.
func Checked(v uint64) (uint32, error) {
	if v == 0 {
		return 0, ErrZero
	}

	var steps uint32

	for v != 1 {
		if v&1 == 1 {
			hi, lo := bits.Mul64(v, 3)
			sum, carry := bits.Add64(lo, 1, 0)
			if hi != 0 || carry != 0 {
				return steps, fmt.Errorf("%w: at %d after %d steps", ErrOverflow, v, steps)
			}

			v = sum
		} else {
			v >>= 1
		}

		steps++
	}

	return steps, nil
}

// Next applies a single step to v. It does not check for overflow.
//
//go:nosplit
func Next(v uint64) uint64 {
	if v&1 == 1 {
		return 3*v + 1
	}

	return v >> 1
}
