package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"andy.dev/again/backoff"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	baseD      = 500 * time.Millisecond
	maxSeconds = 10
	maxD       = 4 * time.Second

	totalSamples = 100_000
	slotsPerSec  = 10
	totalSlots   = maxSeconds * slotsPerSec
	triesPer     = 6
)

type schedule struct {
	name  string
	short string
	cfg   backoff.Config
}

func main() {
	log.SetFlags(log.Lshortfile)
	rng := rand.New(rand.NewPCG(4321, 1234))

	cfg := func(s backoff.Strategy, j backoff.Jitter) backoff.Config {
		return backoff.Config{Base: baseD, Max: maxD, Strategy: s, Jitter: j, Rand: rng.Float64}
	}
	schedules := []schedule{
		{name: "Constant w/ Jitter", short: "constant", cfg: cfg(backoff.Constant(), backoff.RandomJitter())},
		{name: "Linear w/ Jitter", short: "linear", cfg: cfg(backoff.Linear(), backoff.RandomJitter())},
		{name: "Exponential w/ Jitter", short: "expo", cfg: cfg(backoff.Exponential(), backoff.RandomJitter())},
		{name: "Exponential(1.5) w/ 25% Jitter", short: "expo15", cfg: cfg(backoff.ExponentialFactor(1.5), backoff.Fraction(0.25))},
	}

	makeLines(schedules)
	makeHistograms(schedules)
}

// delays returns the waits before attempts 2 through triesPer+1.
func delays(s schedule, into []float64) {
	for i := range into {
		d, err := backoff.Delay(i+1, s.cfg)
		if err != nil {
			log.Fatalf("%s: %v", s.name, err)
		}
		into[i] = d.Seconds()
	}
}

// makeLines plots when retries happen, measured from the first attempt.
func makeLines(schedules []schedule) {
	p := plot.New()
	p.X.Label.Text = fmt.Sprintf(
		"Retry start times across %d retries, base %v, max %v",
		triesPer, baseD, maxD,
	)
	p.Y.Label.Text = "Percentage of total retries"
	p.Y.Tick.Marker = pctTicks{}
	p.X.Tick.Marker = secTicks()
	p.Legend.Top = true

	waits := make([]float64, triesPer)
	for si, s := range schedules {
		samples := make(samplePlotter, totalSlots)
		for range totalSamples {
			delays(s, waits)
			t := 0.0
			for _, w := range waits {
				t += w
				if x := int(t * slotsPerSec); x < totalSlots {
					samples[x] += 1.0 / (totalSamples * triesPer)
				}
			}
		}

		l, err := plotter.NewLine(samples)
		if err != nil {
			log.Fatal(err)
		}
		l.LineStyle.Width = vg.Points(1)
		l.LineStyle.Color = plotutil.Color(si)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	file := chartname("schedules")
	fmt.Println(file)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
		log.Fatal(err)
	}
}

// makeHistograms draws one tile per retry showing how its delay is spread
// by jitter.
func makeHistograms(schedules []schedule) {
	const cols = 3

	waits := make([]float64, triesPer)
	for _, s := range schedules {
		perTry := make([]plotter.Values, triesPer)
		for range totalSamples {
			delays(s, waits)
			for i, w := range waits {
				perTry[i] = append(perTry[i], w)
			}
		}

		rows := numRows(cols, triesPer)
		plots := make([][]*plot.Plot, rows)
		for i := range plots {
			plots[i] = make([]*plot.Plot, cols)
		}
		for i, values := range perTry {
			h, err := plotter.NewHist(values, slotsPerSec*2)
			if err != nil {
				log.Fatal(err)
			}
			h.Normalize(100)
			p := plot.New()
			p.Title.Text = fmt.Sprintf("retry %d", i+1)
			p.X.Label.Text = "seconds"
			p.Add(h)
			plots[i/cols][i%cols] = p
		}

		img := vgimg.New(cols*4*vg.Inch, font.Length(rows)*4*vg.Inch)
		dc := draw.New(img)
		t := draw.Tiles{Rows: rows, Cols: cols}
		canvases := plot.Align(plots, t, dc)
		for j := range t.Rows {
			for i := range t.Cols {
				if plots[j][i] != nil {
					plots[j][i].Draw(canvases[j][i])
				}
			}
		}

		file := chartname(s.short, "hist")
		fmt.Println(file)
		w, err := os.Create(file)
		if err != nil {
			log.Fatalf("os.Create: %v", err)
		}
		if _, err = (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
			log.Fatalf("PngCanvas.WriteTo(): %v", err)
		}
		if err := w.Close(); err != nil {
			log.Fatal(err)
		}
	}
}

type samplePlotter []float64

func (sp samplePlotter) Len() int {
	return len(sp)
}

func (sp samplePlotter) XY(idx int) (x, y float64) {
	return float64(idx), sp[idx]
}

type pctTicks struct{}

// Ticks labels the default tick marks as percentages.
func (pctTicks) Ticks(min, max float64) []plot.Tick {
	tks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range tks {
		if t.Label != "" {
			tks[i].Label = strconv.FormatFloat(t.Value*100, 'G', 3, 64) + "%"
		}
	}
	return tks
}

func secTicks() plot.ConstantTicks {
	ticks := make([]plot.Tick, 0, maxSeconds)
	for i := 1; i <= maxSeconds; i++ {
		ticks = append(ticks, plot.Tick{
			Value: float64(i * slotsPerSec),
			Label: fmt.Sprintf("%ds", i),
		})
	}
	return ticks
}

func chartname(parts ...any) string {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal("os.Getwd():", err)
	}
	fname := []byte(filepath.Join(cwd, "charts") + string(filepath.Separator))
	for i, p := range parts {
		fname = fmt.Append(fname, p)
		if i < len(parts)-1 {
			fname = fmt.Append(fname, "_")
		}
	}
	fname = fmt.Append(fname, ".png")
	return string(fname)
}

func numRows(columns, total int) int {
	m := 0
	if total%columns > 0 {
		m++
	}
	return total/columns + m
}
