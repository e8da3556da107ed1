// Package charter keeps the latest processor snapshots and renders them as
// an HTML page of line charts.
package charter

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"gopulse/harmonic"
)

// Recorder holds the most recent snapshot of each processor trace. It is
// filled through the observer returned by Observer and must not be read
// while the processor is running.
type Recorder struct {
	Signal     []float64
	Polarity   []float64
	Slow       []float64
	Projection []float64
	Spectrum   []float64
	BPM        float64
	SNR        float64
	Analyses   int
}

func (r *Recorder) Observer() harmonic.Observer {
	return harmonic.ObserverFuncs{
		OnSignal:        func(signal []float64) { r.Signal = signal },
		OnPolarity:      func(polarity []float64) { r.Polarity = polarity },
		OnSlowSignal:    func(slow []float64) { r.Slow = slow },
		OnPCAProjection: func(projection []float64) { r.Projection = projection },
		OnSpectrum: func(spectrum []float64) {
			r.Spectrum = spectrum
			r.Analyses++
		},
		OnFrequency: func(bpm, snr float64, _ bool) {
			r.BPM = bpm
			r.SNR = snr
		},
		OnTooNoisy: func(snr float64) { r.SNR = snr },
	}
}

// MakeChart builds one line chart with a series per entry of data, all of
// the same x axis.
func MakeChart(title, subtitle string, names []string, data ...[]float64) *charts.Line {
	length := 0
	for _, series := range data {
		if len(series) > length {
			length = len(series)
		}
	}

	xLabels := make([]string, length)
	for i := range xLabels {
		xLabels[i] = fmt.Sprint(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
	)

	line.SetXAxis(xLabels)
	for s, series := range data {
		items := make([]opts.LineData, len(series))
		for i, v := range series {
			items[i] = opts.LineData{Value: v}
		}
		line.AddSeries(names[s], items)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: false}))

	return line
}

// Render writes a page with the signal, polarity and spectrum charts. Traces
// that were never recorded are left out.
func (r *Recorder) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "gopulse"

	subtitle := fmt.Sprintf("%.1f bpm, %.1f dB after %d analyses", r.BPM, r.SNR, r.Analyses)

	if len(r.Signal) > 0 {
		page.AddCharts(MakeChart("Combined signal", subtitle, []string{"signal"}, r.Signal))
	}
	if len(r.Projection) > 0 {
		page.AddCharts(MakeChart("PCA projection", subtitle, []string{"projection"}, r.Projection))
	}
	if len(r.Polarity) > 0 {
		page.AddCharts(MakeChart("Polarity", subtitle, []string{"polarity", "slow"}, r.Polarity, r.Slow))
	}
	if len(r.Spectrum) > 0 {
		page.AddCharts(MakeChart("Power spectrum", subtitle, []string{"power"}, r.Spectrum))
	}

	return page.Render(w)
}

func (r *Recorder) WriteHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.Render(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
