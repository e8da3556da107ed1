// Package cli turns the command line into Arguments. Processing options
// given as flags are collected as config overrides so they win over the
// config file and the environment.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	urfave "github.com/urfave/cli/v2"
)

type Command int

const (
	None Command = iota
	Replay
	Simulate
	Stream
	Produce
)

var CommandNames = map[Command]string{
	Replay:   "replay",
	Simulate: "simulate",
	Stream:   "stream",
	Produce:  "produce",
}

func (c Command) String() string {
	return CommandNames[c]
}

// ErrNoCommand is returned when help or version was printed instead of a
// command being selected.
var ErrNoCommand = errors.New("no command selected")

type Arguments struct {
	Command    Command
	ConfigPath string
	InputPath  string  // replay: CSV recording
	RecordPath string  // simulate: where to save the generated frames
	Frames     int     // simulate: number of frames
	FrameRate  float64 // simulate and produce
	BPM        float64 // simulate and produce
	Batch      int     // produce: frames per message
	ChartPath  string
	TracePath  string
	Quiet      bool
	Overrides  map[string]interface{}
}

// overrideFlags maps flag names to the config keys they override.
var overrideFlags = map[string]string{
	"mode":              "processor.mode",
	"channel":           "processor.channel",
	"pca":               "processor.pca",
	"zero-crossings":    "processor.zerocrossings",
	"every":             "analysis.every",
	"count-crossings":   "analysis.countcrossings",
	"thresholds":        "thresholds.file",
	"sex":               "thresholds.sex",
	"age":               "thresholds.age",
	"alpha":             "thresholds.alpha",
	"log-level":         "log.level",
	"log-path":          "log.path",
	"nats":              "nats.url",
	"frames-subject":    "nats.frames",
	"estimates-subject": "nats.estimates",
}

func processingFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.PathFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (yaml, json or toml)"},
		&urfave.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "ingestion mode: dual or single"},
		&urfave.StringFlag{Name: "channel", Usage: "colour used in single mode: red, green or blue"},
		&urfave.BoolFlag{Name: "pca", Usage: "analyse the principal component of the raw colours"},
		&urfave.IntFlag{Name: "zero-crossings", Usage: "polarity changes spanned by the zero-crossing estimate"},
		&urfave.IntFlag{Name: "every", Aliases: []string{"e"}, Usage: "frames between spectral analyses"},
		&urfave.BoolFlag{Name: "count-crossings", Usage: "also run the zero-crossing estimator"},
		&urfave.PathFlag{Name: "thresholds", Aliases: []string{"t"}, Usage: "XML threshold table"},
		&urfave.StringFlag{Name: "sex", Usage: "male or female, for the threshold lookup"},
		&urfave.IntFlag{Name: "age", Usage: "age in years, for the threshold lookup"},
		&urfave.StringFlag{Name: "alpha", Usage: "confidence level in percent: 2, 5, 10, 20 or 50"},
		&urfave.StringFlag{Name: "log-level", Usage: "trace, debug, info, warning or error"},
		&urfave.PathFlag{Name: "log-path", Usage: "directory for rotating log files"},
		&urfave.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress informational output"},
	}
}

func outputFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.PathFlag{Name: "chart", Usage: "write an HTML chart of the last snapshots to this file or directory"},
		&urfave.PathFlag{Name: "trace", Usage: "write the last snapshots as audio (.wav or .aif) to this file or directory"},
	}
}

func generatorFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.Float64Flag{Name: "fps", Value: 25, Usage: "frames per second"},
		&urfave.Float64Flag{Name: "bpm", Value: 72, Usage: "simulated heart rate"},
	}
}

func natsFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{Name: "nats", Usage: "NATS url"},
		&urfave.StringFlag{Name: "frames-subject", Usage: "subject carrying frame messages"},
		&urfave.StringFlag{Name: "estimates-subject", Usage: "subject estimates are published on"},
	}
}

func flags(groups ...[]urfave.Flag) (all []urfave.Flag) {
	for _, group := range groups {
		all = append(all, group...)
	}
	return
}

func ParseFlags(args []string, version string) (*Arguments, error) {
	parsedArgs := &Arguments{}

	collect := func(command Command) func(c *urfave.Context) error {
		return func(c *urfave.Context) error {
			parsedArgs.Command = command
			parsedArgs.ConfigPath = c.Path("config")
			parsedArgs.Quiet = c.Bool("quiet")
			parsedArgs.Overrides = map[string]interface{}{}

			for name, key := range overrideFlags {
				if c.IsSet(name) {
					parsedArgs.Overrides[key] = c.Value(name)
				}
			}

			var err error
			if path := c.Path("chart"); path != "" {
				if parsedArgs.ChartPath, err = ParseOutputPath(path, "gopulse.html"); err != nil {
					return err
				}
			}
			if path := c.Path("trace"); path != "" {
				if parsedArgs.TracePath, err = ParseOutputPath(path, "gopulse.wav"); err != nil {
					return err
				}
			}

			return nil
		}
	}

	app := &urfave.App{
		Name:     "gopulse",
		HelpName: "gopulse",
		Usage:    "estimate heart rate from colour sums of a tracked skin region",
		Version:  version,
		// errors are returned to the caller instead of exiting here
		ExitErrHandler: func(*urfave.Context, error) {},
		Commands: []*urfave.Command{
			{
				Name:  "replay",
				Usage: "process a CSV recording of frame sums",
				Flags: flags(
					[]urfave.Flag{&urfave.PathFlag{Name: "input", Aliases: []string{"i"}, Usage: "CSV recording", Required: true}},
					processingFlags(),
					outputFlags(),
				),
				Action: func(c *urfave.Context) error {
					input, err := filepath.Abs(c.Path("input"))
					if err != nil {
						return err
					}
					if _, err := os.Stat(input); err != nil {
						return fmt.Errorf("file does not exist: %s", input)
					}
					parsedArgs.InputPath = input
					return collect(Replay)(c)
				},
			},
			{
				Name:  "simulate",
				Usage: "process synthetic frames",
				Flags: flags(
					[]urfave.Flag{
						&urfave.IntFlag{Name: "frames", Aliases: []string{"n"}, Value: 1500, Usage: "number of frames to generate"},
						&urfave.PathFlag{Name: "record", Usage: "save the generated frames as CSV"},
					},
					generatorFlags(),
					processingFlags(),
					outputFlags(),
				),
				Action: func(c *urfave.Context) error {
					if c.Int("frames") < 1 {
						return fmt.Errorf("frames must be positive, got %d", c.Int("frames"))
					}
					parsedArgs.Frames = c.Int("frames")
					parsedArgs.FrameRate = c.Float64("fps")
					parsedArgs.BPM = c.Float64("bpm")

					if path := c.Path("record"); path != "" {
						record, err := ParseOutputPath(path, "frames.csv")
						if err != nil {
							return err
						}
						parsedArgs.RecordPath = record
					}
					return collect(Simulate)(c)
				},
			},
			{
				Name:   "stream",
				Usage:  "process frames arriving over NATS and publish estimates",
				Flags:  flags(processingFlags(), natsFlags()),
				Action: collect(Stream),
			},
			{
				Name:  "produce",
				Usage: "publish synthetic frames over NATS",
				Flags: flags(
					[]urfave.Flag{&urfave.IntFlag{Name: "batch", Value: 10, Usage: "frames per message"}},
					generatorFlags(),
					processingFlags(),
					natsFlags(),
				),
				Action: func(c *urfave.Context) error {
					if c.Float64("fps") <= 0 {
						return fmt.Errorf("fps must be positive, got %v", c.Float64("fps"))
					}
					parsedArgs.FrameRate = c.Float64("fps")
					parsedArgs.BPM = c.Float64("bpm")
					parsedArgs.Batch = c.Int("batch")
					return collect(Produce)(c)
				},
			},
		},
	}

	if err := app.Run(args); err != nil {
		return nil, err
	}

	if parsedArgs.Command == None {
		return nil, ErrNoCommand
	}

	return parsedArgs, nil
}

// ParseOutputPath resolves outputPath to an absolute file path. An existing
// directory gets defaultName appended; otherwise the parent directory must
// exist.
func ParseOutputPath(outputPath, defaultName string) (string, error) {
	path, err := filepath.Abs(outputPath)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, defaultName), nil
	}

	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return "", fmt.Errorf("output directory does not exist: %s", filepath.Dir(path))
	}

	return path, nil
}
