package epaper

import (
	"github.com/juju/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

type SpiTxFunc func(send, recv []byte) error
type PinOutFunc func(high bool) error

type hardware struct {
	spiTx SpiTxFunc
	dc    PinOutFunc
	rst   PinOutFunc
	busy  func() bool

	spiPort spi.PortCloser // only for resource cleanup
}

func (h *hardware) open(c *Config) error {
	if c.testhw != nil {
		*h = *c.testhw
		return nil
	}

	if _, err := host.Init(); err != nil {
		return errors.Annotate(err, "periph/init")
	}

	spiPort, err := spireg.Open(c.Spi.Bus)
	if err != nil {
		return errors.Annotatef(err, "SPI Open bus=%s", c.Spi.Bus)
	}
	var spiSpeed physic.Frequency
	speedString := c.Spi.Speed
	if speedString == "" {
		speedString = DefaultSpiSpeed
	}
	if err = spiSpeed.Set(speedString); err != nil {
		spiPort.Close()
		return errors.Annotatef(err, "SPI speed parse=%s", speedString)
	}
	spiConn, err := spiPort.Connect(spiSpeed, spi.Mode0, 8)
	if err != nil {
		spiPort.Close()
		return errors.Annotate(err, "SPI Connect")
	}

	dc, err := openOut(c.Spi.PinDC, "dc", gpio.Low)
	if err != nil {
		spiPort.Close()
		return err
	}
	rst, err := openOut(c.Spi.PinRST, "rst", gpio.High)
	if err != nil {
		spiPort.Close()
		return err
	}
	busy := gpioreg.ByName(c.Spi.PinBusy)
	if busy == nil {
		spiPort.Close()
		return errors.NotFoundf("gpio busy pin=%s", c.Spi.PinBusy)
	}
	if err = busy.In(gpio.PullDown, gpio.NoEdge); err != nil {
		spiPort.Close()
		return errors.Annotatef(err, "gpio busy pin=%s In", c.Spi.PinBusy)
	}

	h.spiPort = spiPort
	h.spiTx = spiConn.Tx
	h.dc = dc
	h.rst = rst
	h.busy = func() bool { return busy.Read() == gpio.High }
	return nil
}

func (h *hardware) Close() error {
	if h.spiPort != nil {
		return h.spiPort.Close()
	}
	return nil
}

func openOut(name, tag string, initial gpio.Level) (PinOutFunc, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.NotFoundf("gpio %s pin=%s", tag, name)
	}
	if err := p.Out(initial); err != nil {
		return nil, errors.Annotatef(err, "gpio %s pin=%s Out", tag, name)
	}
	return func(high bool) error {
		if high {
			return p.Out(gpio.High)
		}
		return p.Out(gpio.Low)
	}, nil
}
