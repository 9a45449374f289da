package auhost

import (
	"math"
	"time"
)

// FramesDuration returns the playing time of frames frames at sampleRate.
func FramesDuration(frames, sampleRate int) time.Duration {
	if sampleRate == 0 {
		return 0
	}

	return time.Duration(frames) * time.Second / time.Duration(abs(sampleRate))
}

// FramesForDuration returns the number of whole frames that fit in dur.
func FramesForDuration(dur time.Duration, sampleRate int) int {
	frame := frameDuration(sampleRate)
	if frame == 0 {
		return 0
	}

	return int(math.Floor(float64(dur) / float64(frame)))
}

func frameDuration(sampleRate int) time.Duration {
	if sampleRate == 0 {
		return 0
	}

	return time.Second / time.Duration(abs(sampleRate))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

// Duration returns the playing time of the valid frames.
func (b *PCMBuffer) Duration() time.Duration {
	return FramesDuration(b.FrameLength(), b.SampleRate())
}
