package rcdrive

import "strconv"

// Speed is the desired direction and magnitude of one motor:
//
//	1 => max speed
//	0 => motor off
//	-1 => max reverse speed
//
// The only way to build one is FromPercent, so a Speed is always within [-1, 1].
type Speed struct {
	v float32
}

var (
	Off        = Speed{0}
	MaxForward = Speed{1}
	MaxReverse = Speed{-1}
)

// FromPercent clamps val into [-1, 1]. NaN is treated as Off
func FromPercent(val float32) Speed {
	switch {
	case val != val:
		return Off
	case val > 1:
		return MaxForward
	case val < -1:
		return MaxReverse
	}
	return Speed{val}
}

func (s Speed) Value() float32 {
	return s.v
}

func (s Speed) IsOff() bool {
	return s.v == 0
}

func (s Speed) String() string {
	return strconv.FormatFloat(float64(s.v), 'f', 3, 32)
}
