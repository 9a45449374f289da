// This tool renders a WAV or AIFF file through a processing unit and writes
// the result to a new WAV file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/standinga/auhost"
)

var (
	errMissingInput = errors.New("missing -input")
	errUnknownUnit  = errors.New("unknown unit")
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("auhost-render", flag.ContinueOnError)

	input := flagSet.String("input", "", "WAV or AIFF file to render")
	output := flagSet.String("output", "rendered.wav", "filename to write to")
	gain := flagSet.Float64("gain", 1, "linear gain applied after the unit")
	frames := flagSet.Int("frames", auhost.DefaultMaxFrames, "frames per render cycle")
	unitName := flagSet.String("unit", "bypass", "processing unit: bypass or polarity")
	bitDepth := flagSet.Int("bits", 32, "output bit depth: 16 or 24 for PCM, 32 for float")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	if *input == "" {
		return errMissingInput
	}

	unit, err := unitByName(*unitName)
	if err != nil {
		return err
	}

	decoded, err := auhost.LoadFile(*input)
	if err != nil {
		return err
	}

	host, err := auhost.NewHost(decoded, unit,
		auhost.WithMaxFrames(*frames),
		auhost.WithGain(float32(*gain)),
	)
	if err != nil {
		return err
	}

	log.Printf("rendering %d frames of %s through %s in cycles of %d", decoded.FrameLength(), *input, *unitName, *frames)

	file, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}
	defer file.Close()

	audioFormat := 1
	if *bitDepth == 32 {
		audioFormat = 3
	}

	enc := auhost.NewEncoder(file, host.SampleRate(), *bitDepth, host.NumChannels(), audioFormat)

	for {
		out, n, err := host.RenderCycle(*frames)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		err = enc.WriteBufferList(out, n)
		if err != nil {
			return err
		}
	}

	return enc.Close()
}

func unitByName(name string) (auhost.Unit, error) {
	switch name {
	case "bypass":
		return auhost.Bypass{}, nil
	case "polarity":
		return auhost.Polarity{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownUnit, name)
	}
}
