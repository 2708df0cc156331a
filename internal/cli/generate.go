package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-qa/synth"
	"github.com/RyanBlaney/sonido-qa/transcode"
)

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <output.wav>",
		Short: "Write a reference test tone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			duration, _ := flags.GetDuration("duration")
			frequency, _ := flags.GetFloat64("frequency")
			noise, _ := flags.GetFloat64("noise")
			seed, _ := flags.GetUint64("seed")
			bitDepth, _ := flags.GetInt("bit-depth")
			fadeIn, _ := flags.GetBool("fade-in")
			fadeOut, _ := flags.GetBool("fade-out")

			sampleRate := opts.config.Engine.SampleRate
			generator := synth.NewToneGenerator(sampleRate, seed).WithNoise(noise)
			tone, err := generator.Tone(duration, frequency)
			if err != nil {
				return err
			}
			if fadeIn {
				synth.Fade(tone, true)
			}
			if fadeOut {
				synth.Fade(tone, false)
			}

			if err := transcode.WriteWAV(args[0], tone, sampleRate, bitDepth); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %s at %g Hz, %d samples\n",
				args[0], duration, frequency, len(tone))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Duration("duration", 3*time.Second, "Tone length")
	flags.Float64("frequency", 440, "Tone frequency, Hz")
	flags.Float64("noise", synth.DefaultNoiseSigma, "Gaussian noise standard deviation")
	flags.Uint64("seed", 0, "Noise seed")
	flags.Int("bit-depth", transcode.DefaultBitDepth, "WAV bit depth: 16, 24 or 32")
	flags.Bool("fade-in", false, "Apply a linear fade-in")
	flags.Bool("fade-out", false, "Apply a linear fade-out")

	return cmd
}
