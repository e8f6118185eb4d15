package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/hardware/epaper"
	"github.com/temoto/inkmenu/hardware/input"
	"github.com/temoto/inkmenu/hardware/led"
	"github.com/temoto/inkmenu/helpers"
	ui_config "github.com/temoto/inkmenu/internal/ui/config"
	"github.com/temoto/inkmenu/log2"
	tele_config "github.com/temoto/inkmenu/tele/config"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		Display epaper.Config `hcl:"display"`
		Input   struct {
			DevInputEvent input.DevInputEventConfig `hcl:"dev_input_event"`
			GpioButtons   []input.GpioButtonConfig  `hcl:"gpio_button"`
			Keymap        input.KeymapConfig        `hcl:"keymap"`
		}
		Led led.Config `hcl:"led"`
	}

	Tele tele_config.Config
	UI   ui_config.Config

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Validate checks values that defaults can not fix.
func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.UI.CommandQueue < 0 {
		errs = append(errs, errors.NotValidf("config: ui.command_queue=%d", c.UI.CommandQueue))
	}
	if c.UI.PeripheralQueue < 0 {
		errs = append(errs, errors.NotValidf("config: ui.peripheral_queue=%d", c.UI.PeripheralQueue))
	}
	if c.UI.PollSec < 0 {
		errs = append(errs, errors.NotValidf("config: ui.poll_sec=%d", c.UI.PollSec))
	}
	switch c.Hardware.Display.Driver {
	case "", epaper.DriverSpi, epaper.DriverPreview, epaper.DriverMock:
	default:
		errs = append(errs, errors.NotValidf("config: hardware.display.driver=%s valid: spi, preview, mock", c.Hardware.Display.Driver))
	}
	if err := c.Hardware.Display.Validate(); err != nil {
		errs = append(errs, errors.Annotate(err, "config: hardware"))
	}
	seen := make(map[string]struct{}, len(c.Hardware.Input.GpioButtons))
	for _, b := range c.Hardware.Input.GpioButtons {
		if _, ok := seen[b.Name]; ok {
			errs = append(errs, errors.NotValidf("config: duplicate gpio_button=%s", b.Name))
		}
		seen[b.Name] = struct{}{}
	}
	if _, err := input.NewKeymap(c.Hardware.Input.Keymap); err != nil {
		errs = append(errs, errors.Annotate(err, "config: hardware.input.keymap"))
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
