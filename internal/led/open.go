package led

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// DefaultFreq is the WS2812 bit rate used over SPI.
const DefaultFreq = 2500 * physic.KiloHertz

type Options struct {
	// Port is the spireg port name; empty picks the first one.
	Port        string
	Zones       int
	LEDsPerZone int
	Order       Order
	ColorOrder  string
	Freq        physic.Frequency
	// ConsoleWidth is used when falling back to the terminal drawer.
	ConsoleWidth int
}

// Open initializes the host drivers and opens a WS2812 strip on SPI. When
// no SPI port is available it falls back to a terminal drawer; hardware
// reports which one was chosen.
func Open(opts Options) (s *Strip, hardware bool, err error) {
	if _, err := host.Init(); err != nil {
		return nil, false, fmt.Errorf("led: host init: %w", err)
	}
	zmap := BuildZoneMap(opts.Zones, opts.LEDsPerZone, opts.Order)

	port, err := spireg.Open(opts.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", opts.Port).Msg("no SPI port; drawing to the console")
		return OpenConsole(opts), false, nil
	}
	d, err := OpenSPI(port, zmap.Pixels(), opts.Freq)
	if err != nil {
		_ = port.Close()
		return nil, false, err
	}
	s = NewStrip(d, zmap, opts.ColorOrder)
	s.closer = port
	return s, true, nil
}

// OpenConsole draws the strip as colored blocks on the terminal.
func OpenConsole(opts Options) *Strip {
	zmap := BuildZoneMap(opts.Zones, opts.LEDsPerZone, opts.Order)
	width := opts.ConsoleWidth
	if width <= 0 {
		width = zmap.Pixels()
	}
	return NewStrip(screen.New(width), zmap, "GRB")
}

// OpenSPI wraps an SPI port in the nrzled encoder.
func OpenSPI(p spi.Port, pixels int, freq physic.Frequency) (display.Drawer, error) {
	if freq == 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: pixels, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("led: nrzled: %w", err)
	}
	return d, nil
}

var _ io.Closer = (*Strip)(nil)
