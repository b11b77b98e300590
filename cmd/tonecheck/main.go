// ABOUTME: Diagnostic tool for the pitch detector
// ABOUTME: Analyses synthetic tones and prints the detected note for each
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/tuner"
)

var (
	freqs      = flag.String("freqs", "82.41,110,146.83,196,246.94,329.63,440", "Comma-separated test frequencies in Hz")
	sampleRate = flag.Int("sample-rate", 44100, "Sample rate in Hz")
	frameSize  = flag.Int("frame-size", tuner.DefaultFrameSize, "Analysis frame size")
	threshold  = flag.Float64("threshold", tuner.DefaultThreshold, "YIN threshold")
	amplitude  = flag.Float64("amplitude", 0.5, "Tone amplitude")
	harmonic   = flag.Float64("harmonic", 0, "Relative level of an added second harmonic")
)

func main() {
	flag.Parse()

	fmt.Println("=== Tuner Check ===")
	fmt.Printf("Sample rate %dHz, frame %d samples, threshold %.2f\n\n", *sampleRate, *frameSize, *threshold)
	fmt.Printf("%10s  %-6s %8s %10s %8s\n", "input Hz", "note", "cents", "detected", "error")

	failures := 0
	for _, field := range strings.Split(*freqs, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			logrus.Fatalf("invalid frequency %q: %v", field, err)
		}

		frame := make([]float64, *frameSize)
		for i := range frame {
			t := float64(i) / float64(*sampleRate)
			frame[i] = *amplitude * (math.Sin(2*math.Pi*f*t) + *harmonic*math.Sin(4*math.Pi*f*t))
		}

		r, ok := tuner.Analyze(frame, *sampleRate, *threshold)
		if !ok {
			fmt.Printf("%10.2f  %-6s %8s %10s %8s\n", f, "-", "-", "-", "-")
			failures++
			continue
		}

		fmt.Printf("%10.2f  %-6s %+8.1f %10.2f %+8.2f\n",
			f, fmt.Sprintf("%s%d", r.Note, r.Octave), r.Cents, r.Frequency, r.Frequency-f)
	}

	if failures > 0 {
		fmt.Printf("\n%d tone(s) not detected\n", failures)
		os.Exit(1)
	}
}
