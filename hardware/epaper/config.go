package epaper

import (
	"math"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/types"
)

const (
	DriverSpi     = "spi"
	DriverPreview = "preview"
	DriverMock    = "mock"

	DefaultWidth        = 264
	DefaultHeight       = 176
	DefaultTemperatureC = 20
	DefaultBusyTimeout  = 5 * time.Second
	DefaultSpiSpeed     = "20MHz"
)

type Config struct { //nolint:maligned
	Driver        string `hcl:"driver"`
	Width         int    `hcl:"width"`
	Height        int    `hcl:"height"`
	TemperatureC  *int   `hcl:"temperature_c"` // nil = default
	BusyTimeoutMs int    `hcl:"busy_timeout_ms"`
	Spi           struct {
		Bus     string `hcl:"bus"`
		Speed   string `hcl:"speed"`
		PinDC   string `hcl:"pin_dc"`
		PinRST  string `hcl:"pin_rst"`
		PinBusy string `hcl:"pin_busy"`
	} `hcl:"spi"`

	testhw *hardware
}

func (c *Config) Geometry() types.Geometry {
	g := types.Geometry{Width: c.Width, Height: c.Height}
	if g.Width == 0 {
		g.Width = DefaultWidth
	}
	if g.Height == 0 {
		g.Height = DefaultHeight
	}
	return g
}

func (c *Config) BusyTimeout() time.Duration {
	return helpers.IntMillisecondDefault(c.BusyTimeoutMs, DefaultBusyTimeout)
}

func (c *Config) Temperature() int {
	if c.TemperatureC == nil {
		return DefaultTemperatureC
	}
	return *c.TemperatureC
}

// Validate rejects values the panel driver would misuse.
// Temperature register takes whole degrees as signed byte.
func (c *Config) Validate() error {
	errs := make([]error, 0, 3)
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, errors.NotValidf("display geometry=%dx%d", c.Width, c.Height))
	}
	if t := c.Temperature(); t < math.MinInt8 || t > math.MaxInt8 {
		errs = append(errs, errors.NotValidf("display temperature_c=%d range=%d..%d", t, math.MinInt8, math.MaxInt8))
	}
	if c.BusyTimeoutMs < 0 {
		errs = append(errs, errors.NotValidf("display busy_timeout_ms=%d", c.BusyTimeoutMs))
	}
	return helpers.FoldErrors(errs)
}
