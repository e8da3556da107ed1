package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	osSignal "os/signal"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"gopulse/audioio"
	"gopulse/charter"
	"gopulse/cli"
	"gopulse/config"
	"gopulse/framesource"
	"gopulse/harmonic"
	"gopulse/logging"
	"gopulse/pipeline"
	"gopulse/stream"
	"gopulse/synth"
	"gopulse/thresholds"
)

var Version = ""

func main() {
	// parse cli flags/arguments
	parsedArgs, err := cli.ParseFlags(os.Args, Version)
	if errors.Is(err, cli.ErrNoCommand) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	conf, err := config.Load(parsedArgs.ConfigPath, parsedArgs.Overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not load configuration:", err)
		os.Exit(1)
	}

	log, err := logging.New(conf.Log.Level, conf.Log.Path, conf.Log.Keep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not set up logging:", err)
		os.Exit(1)
	}

	if parsedArgs.Command == cli.Produce {
		if err := produce(parsedArgs, conf, log); err != nil {
			log.WithError(err).Fatal("producer stopped")
		}
		return
	}

	processor, mode, err := newProcessor(conf, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	driver, err := pipeline.NewDriver(processor, pipeline.Options{
		Mode:           mode,
		Every:          conf.Analysis.Every,
		CountCrossings: conf.Analysis.CountCrossings,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch parsedArgs.Command {
	case cli.Replay:
		frames, err := framesource.ReadFile(parsedArgs.InputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Could not read recording:", err)
			os.Exit(1)
		}
		replay(parsedArgs, driver, frames)
	case cli.Simulate:
		frames := synth.NewPulse(parsedArgs.FrameRate, parsedArgs.BPM).Frames(parsedArgs.Frames)
		if parsedArgs.RecordPath != "" {
			if err := framesource.WriteFile(parsedArgs.RecordPath, frames); err != nil {
				fmt.Fprintln(os.Stderr, "Could not write recording:", err)
				os.Exit(1)
			}
		}
		replay(parsedArgs, driver, frames)
	case cli.Stream:
		if err := serve(conf, driver, log); err != nil {
			log.WithError(err).Fatal("processor stopped")
		}
	}
}

func newProcessor(conf *config.Config, log *logrus.Logger) (*harmonic.Processor, harmonic.Mode, error) {
	mode, err := harmonic.ParseMode(conf.Processor.Mode)
	if err != nil {
		return nil, mode, err
	}

	channel, err := harmonic.ParseChannel(conf.Processor.Channel)
	if err != nil {
		return nil, mode, err
	}

	settings := conf.Settings()
	settings.Logger = log

	processor, err := harmonic.NewProcessor(conf.Processor.DataLength, conf.Processor.BufferLength, settings)
	if err != nil {
		return nil, mode, err
	}

	processor.SwitchToChannel(channel)
	processor.SetPCA(conf.Processor.PCA)
	processor.SetZeroCrossingTarget(conf.Processor.ZeroCrossings)

	if conf.Thresholds.File != "" {
		sex, err := thresholds.ParseSex(conf.Thresholds.Sex)
		if err != nil {
			return nil, mode, err
		}

		alpha, err := thresholds.ParseAlpha(conf.Thresholds.Alpha)
		if err != nil {
			return nil, mode, err
		}

		if err := processor.LoadThresholds(conf.Thresholds.File, sex, conf.Thresholds.Age, alpha); err != nil {
			low, high := processor.Thresholds()
			log.WithError(err).WithFields(logrus.Fields{
				"low":  low,
				"high": high,
			}).Warn("keeping default plausible range")
		}
	}

	return processor, mode, nil
}

func replay(parsedArgs *cli.Arguments, driver *pipeline.Driver, frames []harmonic.Frame) {
	recorder := &charter.Recorder{}
	driver.Processor.Attach(recorder.Observer())

	frameRate := meanFrameRate(frames)

	if !parsedArgs.Quiet {
		fmt.Print(driver.Processor.String())
		fmt.Printf("%24s   %s\n", "Mode:", driver.Options.Mode)
		fmt.Printf("%24s   %d\n", "Frames:", len(frames))
		fmt.Printf("%24s   %.2f\n", "Frame Rate:", frameRate)
		fmt.Printf("%24s   %.2f s\n", "Duration:", float64(len(frames))/frameRate)
	}

	// progress will be a number 0-100
	progress := make(chan int)
	errors := make(chan error)
	done := make(chan bool)

	bar := progressbar.NewOptions(
		100,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("processing..."),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]=[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	go driver.Run(pipeline.NewFrameSlice(frames), progress, errors, done)

	// wait for messages
	wait := true
	for wait {
		select {
		case err := <-errors:
			fmt.Fprintln(os.Stderr, "\n >>> Processing error:", err, " <<<")
			os.Exit(1)
		case curProgress := <-progress:
			if !parsedArgs.Quiet {
				bar.Set(curProgress)
			}
		case <-done:
			wait = false
		}
	}

	if !parsedArgs.Quiet {
		fmt.Println()
		fmt.Println()
	}
	printResults(driver.Results)

	if parsedArgs.ChartPath != "" {
		if err := recorder.WriteHTML(parsedArgs.ChartPath); err != nil {
			fmt.Fprintln(os.Stderr, "Could not write chart:", err)
			os.Exit(1)
		}
	}

	if parsedArgs.TracePath != "" {
		err := audioio.WriteTraces(
			parsedArgs.TracePath,
			int(frameRate+0.5),
			recorder.Signal,
			recorder.Polarity,
			recorder.Slow,
		)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Could not write trace:", err)
			os.Exit(1)
		}
	}
}

func meanFrameRate(frames []harmonic.Frame) float64 {
	intervals := lo.Filter(lo.Map(frames, func(f harmonic.Frame, _ int) float64 {
		return f.Interval
	}), func(interval float64, _ int) bool {
		return interval > 0
	})

	if len(intervals) == 0 {
		return 25
	}
	return 1000.0 * float64(len(intervals)) / lo.Sum(intervals)
}

// printResults shows the last analyses with the run summary as footer.
func printResults(results []pipeline.Result) {
	summary := pipeline.Summarize(results)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Frame", "BPM", "SNR (dB)", "In Range", "Too Noisy", "Crossings BPM"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range lo.Subset(results, -10, 10) {
		table.Append([]string{
			strconv.Itoa(r.Frame),
			fmt.Sprintf("%.1f", r.Spectral.BPM),
			fmt.Sprintf("%.2f", r.Spectral.SNR),
			strconv.FormatBool(r.Spectral.InRange),
			strconv.FormatBool(r.Spectral.TooNoisy),
			fmt.Sprintf("%.1f", r.Counted),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d analyses", summary.Analyses),
		fmt.Sprintf("%.1f", summary.MeanBPM),
		fmt.Sprintf("%.2f", summary.MeanSNR),
		fmt.Sprintf("%d", summary.InRange),
		fmt.Sprintf("%d", summary.Analyses-summary.Accepted),
		"",
	})
	table.Render()
}

func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	osSignal.Notify(ch, os.Interrupt)

	go func() {
		<-ch
		cancel()
	}()

	return ctx, cancel
}

func serve(conf *config.Config, driver *pipeline.Driver, log *logrus.Logger) error {
	nc, err := stream.Connect(conf.NATS.URL)
	if err != nil {
		return err
	}
	defer nc.Drain()

	ctx, cancel := interruptContext()
	defer cancel()

	service := stream.NewService(driver, nc, conf.NATS.Estimates, log)
	return stream.Serve(ctx, nc, conf.NATS.Frames, service)
}

func produce(parsedArgs *cli.Arguments, conf *config.Config, log *logrus.Logger) error {
	nc, err := stream.Connect(conf.NATS.URL)
	if err != nil {
		return err
	}
	defer nc.Drain()

	ctx, cancel := interruptContext()
	defer cancel()

	period := time.Duration(float64(time.Second) / parsedArgs.FrameRate)
	log.WithFields(logrus.Fields{
		"subject": conf.NATS.Frames,
		"bpm":     parsedArgs.BPM,
		"fps":     parsedArgs.FrameRate,
	}).Info("producer running")

	return stream.Produce(ctx, nc, conf.NATS.Frames, synth.NewPulse(parsedArgs.FrameRate, parsedArgs.BPM), parsedArgs.Batch, period)
}
