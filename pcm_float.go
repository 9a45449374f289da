package auhost

import "math"

const (
	maxPCMInt8Unsigned = 255
	scalePCMInt8       = 127.5
	scalePCMInt16      = 32768.0
	scalePCMInt24      = 8388608.0
	scalePCMInt32      = 2147483648.0
	floatPCM8Center    = 127.5
	maxPCMInt16        = 32767
	maxPCMInt24        = 8388607
	maxPCMInt32        = 2147483647
)

func clampFloat32(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// normalizePCMInt maps a signed integer sample (unsigned for 8 bit) onto
// [-1, 1).
func normalizePCMInt(sample int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32((float64(sample) - floatPCM8Center) / scalePCMInt8)
	case 16:
		return float32(float64(sample) / scalePCMInt16)
	case 24:
		return float32(float64(sample) / scalePCMInt24)
	case 32:
		return float32(float64(sample) / scalePCMInt32)
	default:
		return 0
	}
}

func float32ToPCMUint8(value float32) uint8 {
	value = clampFloat32(value, -1, 1)

	scaled := int(math.Round(float64((value + 1.0) * scalePCMInt8)))

	return uint8(max(0, min(scaled, maxPCMInt8Unsigned)))
}

func float32ToPCMInt32(value float32, bitDepth int) int32 {
	value = clampFloat32(value, -1, 1)

	var (
		scale float64
		top   int64
	)

	switch bitDepth {
	case 16:
		scale, top = scalePCMInt16, maxPCMInt16
	case 24:
		scale, top = scalePCMInt24, maxPCMInt24
	case 32:
		scale, top = scalePCMInt32, maxPCMInt32
	default:
		return 0
	}

	sample := min(int64(math.Round(float64(value)*scale)), top)

	return int32(max(sample, int64(-scale)))
}
