package trigger

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Input is a single digital button input. The physical line is pulled
// high when unpressed; implementations translate that into a plain
// pressed/unpressed boolean.
type Input interface {
	// Pressed reports whether the button is currently held down.
	Pressed() bool

	Close() error
}

// gpioInput reads a GPIO pin through periph.io.
type gpioInput struct {
	pin gpio.PinIO
}

// NewGPIOInput opens the named GPIO pin (BCM naming, e.g. "GPIO18") as an
// input with the internal pull-up enabled, so the line reads high until
// the button shorts it to ground.
func NewGPIOInput(pinName string) (Input, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialising gpio host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configuring pin %s: %w", pinName, err)
	}

	return &gpioInput{pin: pin}, nil
}

func (g *gpioInput) Pressed() bool {
	return g.pin.Read() == gpio.Low
}

func (g *gpioInput) Close() error {
	return g.pin.Halt()
}
