// Package panel turns physical push buttons into real-time commands, the
// way a machine's front panel feed-hold and cycle-start buttons work
package panel

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"motionbus/core"
)

// ErrUnsupported is returned where no GPIO character device is available
var ErrUnsupported = errors.New("panel: gpio unsupported on this platform")

// Config maps buttons to GPIO lines
type Config struct {
	Chip     string
	Buttons  map[string]int // command name -> line offset
	Debounce time.Duration
}

// Commands resolves button names to command bytes, keyed by line offset.
// Names are the ControlAction names: status_report, cycle_start, feed_hold
// and reset.
func Commands(buttons map[string]int) (map[int]byte, error) {
	byName := map[string]byte{}
	for _, cmd := range []byte{core.CmdStatusReport, core.CmdCycleStart, core.CmdFeedHold, core.CmdReset} {
		action, _ := core.Intercept(cmd)
		byName[action.String()] = cmd
	}

	cmds := make(map[int]byte, len(buttons))
	for name, offset := range buttons {
		cmd, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("panel: unknown button %q", name)
		}
		if _, dup := cmds[offset]; dup {
			return nil, fmt.Errorf("panel: line %d assigned twice", offset)
		}
		cmds[offset] = cmd
	}
	return cmds, nil
}

func offsets(cmds map[int]byte) []int {
	out := make([]int, 0, len(cmds))
	for off := range cmds {
		out = append(out, off)
	}
	sort.Ints(out)
	return out
}
