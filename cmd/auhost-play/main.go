// This tool plays a WAV or AIFF file through a processing unit on the
// default audio device.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/standinga/auhost"
)

var errMissingInput = errors.New("missing -input")

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("auhost-play", flag.ContinueOnError)

	input := flagSet.String("input", "", "WAV or AIFF file to play")
	gain := flagSet.Float64("gain", 1, "linear gain applied after the unit")
	frames := flagSet.Int("frames", auhost.DefaultMaxFrames, "frames per render cycle")
	invert := flagSet.Bool("invert", false, "invert polarity instead of bypassing")
	loop := flagSet.Bool("loop", false, "loop the file until interrupted")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	if *input == "" {
		return errMissingInput
	}

	decoded, err := auhost.LoadFile(*input)
	if err != nil {
		return err
	}

	var unit auhost.Unit = auhost.Bypass{}
	if *invert {
		unit = auhost.Polarity{}
	}

	host, err := auhost.NewHost(decoded, unit,
		auhost.WithMaxFrames(*frames),
		auhost.WithGain(float32(*gain)),
		auhost.WithLoop(*loop),
	)
	if err != nil {
		return err
	}

	if host.SampleRate() < 1 {
		return fmt.Errorf("%w: sample rate %d", auhost.ErrInvalidFormat, host.SampleRate())
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   host.SampleRate(),
		ChannelCount: host.NumChannels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(*frames) * time.Second / time.Duration(host.SampleRate()),
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-ready

	log.Printf("playing %s: %d Hz, %d channels", *input, host.SampleRate(), host.NumChannels())

	player := otoCtx.NewPlayer(host)
	player.Play()

	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	return nil
}
