//go:build linux

package panel

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Panel watches the configured button lines
type Panel struct {
	lines *gpiocdev.Lines
}

// Open requests the button lines as pulled-up inputs and calls fire with the
// command byte on every press (falling edge). fire runs on the gpiocdev event
// goroutine.
func Open(cfg Config, fire func(cmd byte)) (*Panel, error) {
	cmds, err := Commands(cfg.Buttons)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("panel: no buttons configured")
	}

	handler := func(evt gpiocdev.LineEvent) {
		if cmd, ok := cmds[evt.Offset]; ok {
			fire(cmd)
		}
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
		gpiocdev.WithConsumer("motionbus-panel"),
	}
	if cfg.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(cfg.Debounce))
	}

	lines, err := gpiocdev.RequestLines(cfg.Chip, offsets(cmds), opts...)
	if err != nil {
		return nil, fmt.Errorf("panel: request lines on %s: %w", cfg.Chip, err)
	}
	return &Panel{lines: lines}, nil
}

func (p *Panel) Close() error {
	if p == nil || p.lines == nil {
		return nil
	}
	err := p.lines.Close()
	p.lines = nil
	return err
}
