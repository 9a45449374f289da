// This tool prints the format of a WAV or AIFF file and the buffer layout a
// host would hand to a processing unit for it.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/standinga/auhost"
)

const missingPathMessage = "You must pass the path of the file to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errMissingPath
	}

	buf, err := auhost.LoadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Channels: %d\n", buf.NumChannels())
	fmt.Fprintf(out, "SampleRate: %d\n", buf.SampleRate())
	fmt.Fprintf(out, "Frames: %d\n", buf.FrameLength())
	fmt.Fprintf(out, "Duration: %s\n", buf.Duration())

	list := buf.BufferList()
	for i := range list.Len() {
		b := list.At(i)
		fmt.Fprintf(out, "\tbuffer [%d]:\tchannels=%d bytes=%d\n", i, b.NumberChannels, b.DataByteSize)
	}

	return nil
}
