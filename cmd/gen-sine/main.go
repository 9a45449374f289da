// This tool writes a sine tone WAV file, handy as input for auhost-render.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/standinga/auhost"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-sine", flag.ContinueOnError)

	output := flagSet.String("output", "output.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	channels := flagSet.Int("channels", 1, "number of channels")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	log.Printf("generating a %f sec sine wav at %f hz", *length, *frequency)

	const sampleRate = 48000

	numFrames := auhost.FramesForDuration(time.Duration(*length*float64(time.Second)), sampleRate)
	format := &audio.Format{NumChannels: *channels, SampleRate: sampleRate}

	tone, err := auhost.NewPCMBuffer(format, numFrames)
	if err != nil {
		return err
	}

	err = tone.SetFrameLength(numFrames)
	if err != nil {
		return err
	}

	for c := range *channels {
		samples := tone.Channel(c)
		for i := range samples {
			samples[i] = float32(math.Sin(float64(i) / sampleRate * *frequency * 2 * math.Pi))
		}
	}

	file, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}
	defer file.Close()

	wavOut := auhost.NewEncoder(file, sampleRate, 16, *channels, 1)

	err = wavOut.WriteBufferList(tone.BufferList(), numFrames)
	if err != nil {
		return err
	}

	return wavOut.Close()
}
