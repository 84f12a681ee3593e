// Package parsertest generates well-formed TAB, WAX and time-series files
// for tests. Property functions receive the physical pressure (Pa) and
// temperature (°C) of the grid point.
package parsertest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type PropertyFunc func(p, t float64) float64

// Tab describes a 50 x 50 TAB file.
type Tab struct {
	Pressure    []float64
	Temperature []float64
	Density     PropertyFunc
	Viscosity   PropertyFunc

	// HeatCapacity and Conductivity are written only when set.
	HeatCapacity PropertyFunc
	Conductivity PropertyFunc
}

// DefaultTab: pressures 0.5..25 bar, temperatures 0..98 °C, properties linear in P and T.
func DefaultTab() Tab {
	t := Tab{
		Pressure:    make([]float64, 50),
		Temperature: make([]float64, 50),
		Density: func(p, t float64) float64 {
			return 850 - 0.6*t + 1e-6*p
		},
		Viscosity: func(p, t float64) float64 {
			return 0.005 - 0.00004*t
		},
	}
	for i := range t.Pressure {
		t.Pressure[i] = 50000 + 50000*float64(i)
		t.Temperature[i] = 2 * float64(i)
	}
	return t
}

func (t Tab) Text() string {
	var b strings.Builder
	b.WriteString("'PVT TABLE GENERATED FOR TESTS' fixed format\n")
	b.WriteString("   50   50   .000000E+00\n")
	writeValues(&b, t.Pressure, 5)
	writeValues(&b, t.Temperature, 5)
	t.writeProperty(&b, " LIQUID DENSITY (KG/M3)", t.Density)
	t.writeProperty(&b, " LIQUID VISCOSITY (NS/M2)", t.Viscosity)
	if t.HeatCapacity != nil {
		t.writeProperty(&b, " LIQUID HEAT CAPACITY (J/KG K)", t.HeatCapacity)
	}
	if t.Conductivity != nil {
		t.writeProperty(&b, " LIQUID THERMAL CONDUCTIVITY (W/M K)", t.Conductivity)
	}
	return b.String()
}

func (t Tab) writeProperty(b *strings.Builder, marker string, f PropertyFunc) {
	b.WriteString(marker + "\n")
	for _, p := range t.Pressure {
		row := make([]float64, len(t.Temperature))
		for j, temp := range t.Temperature {
			row[j] = f(p, temp)
		}
		writeValues(b, row, 5)
	}
}

// Wax describes a 30 x 30 WAX file with 47 wax components.
type Wax struct {
	Pressure    []float64
	Temperature []float64
	Feed        []float64

	// Dissolved returns the fraction of the feed of each component still in solution.
	Dissolved  PropertyFunc
	WaxDensity PropertyFunc
	LiquidMW   PropertyFunc
	WaxMW      PropertyFunc
}

// DefaultWax: pressures 0.5..29.5 bar, temperatures 10..68 °C, 0.001 mol/mol feed per component,
// dissolved fraction rising linearly from 0.2 at 10 °C to 1.0 at 70 °C.
func DefaultWax() Wax {
	w := Wax{
		Pressure:    make([]float64, 30),
		Temperature: make([]float64, 30),
		Feed:        make([]float64, 47),
		Dissolved: func(p, t float64) float64 {
			return 0.2 + 0.8*(t-10)/60
		},
		WaxDensity: func(p, t float64) float64 { return 900 },
		LiquidMW:   func(p, t float64) float64 { return 200 },
		WaxMW:      func(p, t float64) float64 { return 400 },
	}
	for i := range w.Pressure {
		w.Pressure[i] = 50000 + 100000*float64(i)
		w.Temperature[i] = 10 + 2*float64(i)
	}
	for k := range w.Feed {
		w.Feed[k] = 0.001
	}
	return w
}

// FeedTotal is the summed feed concentration.
func (w Wax) FeedTotal() float64 {
	s := 0.0
	for _, f := range w.Feed {
		s += f
	}
	return s
}

func (w Wax) Text() string {
	var b strings.Builder
	b.WriteString("!WAX TABLE GENERATED FOR TESTS\n")
	for i := 1; i < 8; i++ {
		fmt.Fprintf(&b, "!header line %d\n", i)
	}
	// 8..11 component names
	names := make([]string, len(w.Feed))
	for k := range names {
		names[k] = fmt.Sprintf("C%d", 20+k)
	}
	for i := 0; i < 4; i++ {
		lo, hi := i*12, (i+1)*12
		if hi > len(names) {
			hi = len(names)
		}
		b.WriteString(strings.Join(names[lo:hi], " ") + "\n")
	}

	mw := make([]float64, len(w.Feed))
	rho := make([]float64, len(w.Feed))
	heat := make([]float64, len(w.Feed))
	for k := range mw {
		mw[k] = 282 + 14*float64(k)
		rho[k] = 780 + float64(k)
		heat[k] = 50000 + 100*float64(k)
	}
	// 12..38: component blocks at fixed lines
	b.WriteString("!Molecular weight of wax components\n")
	writeValues(&b, mw, 10)
	b.WriteString("!Density of wax components\n")
	writeValues(&b, rho, 10)
	b.WriteString("!Heat of melting of wax components\n")
	writeValues(&b, heat, 10)
	b.WriteString("!Concentration of wax components in feed\n")
	writeValues(&b, w.Feed, 6)
	b.WriteString("!End of component data\n")

	for i, p := range w.Pressure {
		fmt.Fprintf(&b, "%s %d\n", "!Pressure Point No.", i+1)
		b.WriteString(format(p) + "\n")
		b.WriteString("!Temperature points\n")
		for _, t := range w.Temperature {
			b.WriteString(format(t) + "\n")
			values := make([]float64, 0, 54)
			for _, f := range w.Feed {
				values = append(values, f*w.Dissolved(p, t))
			}
			values = append(values,
				w.WaxDensity(p, t),
				18.5, // gas MW
				w.LiquidMW(p, t),
				w.WaxMW(p, t),
				-2.1e5, // enthalpy
				2300,   // heat capacity
				0.14,   // conductivity
			)
			writeValues(&b, values, 7)
		}
	}
	return b.String()
}

// Series describes a time-series input as CSV.
type Series struct {
	Times []float64 // min
	Tw    func(time float64) float64
	Dw    func(time float64) float64
	DTdr  func(time float64) float64
}

// DefaultSeries: 0..300 min every 10 min, wall cooling from 44 °C, diameter shrinking from 44.6 mm.
func DefaultSeries() Series {
	s := Series{
		Tw:   func(time float64) float64 { return 44 - 0.03*time },
		Dw:   func(time float64) float64 { return 44.6 - 0.002*time },
		DTdr: func(time float64) float64 { return 2000 },
	}
	for i := 0; i <= 30; i++ {
		s.Times = append(s.Times, 10*float64(i))
	}
	return s
}

func (s Series) CSV() string {
	var b strings.Builder
	b.WriteString("Time,Tw,dw,dT/dr\n")
	b.WriteString("min,degC,mm,K/m\n")
	for _, t := range s.Times {
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", format(t), format(s.Tw(t)), format(s.Dw(t)), format(s.DTdr(t)))
	}
	return b.String()
}

// WriteFile writes text to path.
func WriteFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

func writeValues(b *strings.Builder, values []float64, perLine int) {
	for i := 0; i < len(values); i += perLine {
		end := i + perLine
		if end > len(values) {
			end = len(values)
		}
		for _, v := range values[i:end] {
			b.WriteString("  " + format(v))
		}
		b.WriteString("\n")
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'E', -1, 64)
}
