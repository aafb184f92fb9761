package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/google/shlex"
	"tinygo.org/x/drivers"

	"motionbus/core"
	"motionbus/host/bus"
	"motionbus/host/config"
	"motionbus/host/mcu"
	"motionbus/host/panel"
	"motionbus/host/serial"
	"motionbus/sim"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	busName    = flag.String("bus", "", "I2C bus name (overrides config)")
	address    = flag.Uint("addr", 0, "Controller address (overrides config)")
	device     = flag.String("serial", "", "Serial device to pump G-code from (overrides config)")
	simulate   = flag.Bool("sim", false, "Talk to an in-process simulated controller")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	i2cBus, closeBus, err := openBus(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeBus()

	m := mcu.NewMCU(i2cBus, cfg.Controller.Address, cfg.Controller.ReplyLen)
	if *verbose {
		log.Printf("controller at 0x%02X on %s", m.Addr(), busLabel(cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(cfg.Panel.Buttons) > 0 {
		p, err := panel.Open(panel.Config{
			Chip:     cfg.Panel.Chip,
			Buttons:  cfg.Panel.Buttons,
			Debounce: cfg.Panel.Debounce,
		}, func(cmd byte) {
			if err := m.Realtime(cmd); err != nil {
				log.Printf("panel: %v", err)
			}
		})
		if err != nil {
			log.Printf("panel disabled: %v", err)
		} else {
			defer p.Close()
		}
	}

	if cfg.Serial.Device != "" {
		port, err := serial.Open(&serial.Config{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.Serial.ReadTimeout,
		})
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer port.Close()
		port.Flush()

		log.Printf("streaming %s to controller 0x%02X", cfg.Serial.Device, m.Addr())
		if err := m.Stream(ctx, port); err != nil && err != context.Canceled {
			log.Fatalf("stream: %v", err)
		}
		return
	}

	repl(m)
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	if *busName != "" {
		cfg.Bus.Name = *busName
	}
	if *address != 0 {
		if *address > 0x77 {
			return cfg, fmt.Errorf("address 0x%02X out of range", *address)
		}
		cfg.Controller.Address = uint16(*address)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	return cfg, nil
}

func openBus(cfg config.Config) (drivers.I2C, func(), error) {
	if *simulate {
		return newSimulatedBus(cfg), func() {}, nil
	}
	b, err := bus.Open(cfg.Bus.Name, cfg.Bus.SpeedHz)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { b.Close() }, nil
}

// newSimulatedBus runs a controller in-process. Received lines are logged and
// status requests are answered from the raised flags.
func newSimulatedBus(cfg config.Config) drivers.I2C {
	p := sim.NewPeripheral()
	ctrl := core.NewController(p, nil)
	if err := ctrl.Init(core.TWIConfig{Address: core.TWIAddress(cfg.Controller.Address)}); err != nil {
		log.Fatalf("sim: %v", err)
	}

	state := "Idle"
	ctrl.Executor().SetResetHandler(func() { state = "Idle" })
	ctrl.SetRequestHandler(func() []byte {
		flags := ctrl.Executor().Take()
		switch {
		case flags&core.ExecFeedHold != 0:
			state = "Hold"
		case flags&core.ExecCycleStart != 0:
			state = "Run"
		}
		if flags&core.ExecStatusReport == 0 {
			return nil
		}
		return []byte("<" + state + ">")
	})

	return &simBus{Initiator: sim.NewInitiator(ctrl, p), ctrl: ctrl}
}

type simBus struct {
	*sim.Initiator
	ctrl *core.Controller
	line []byte
}

func (s *simBus) Tx(addr uint16, w, r []byte) error {
	err := s.Initiator.Tx(addr, w, r)
	buf := make([]byte, core.TWIBufferLength)
	for {
		n, ok := s.ctrl.ReadMessage(buf)
		if !ok {
			break
		}
		for _, b := range buf[:n] {
			if b == '\n' {
				log.Printf("sim: received %q", s.line)
				s.line = s.line[:0]
				continue
			}
			s.line = append(s.line, b)
		}
	}
	return err
}

func busLabel(cfg config.Config) string {
	if *simulate {
		return "simulated bus"
	}
	if cfg.Bus.Name == "" {
		return "first I2C bus"
	}
	return cfg.Bus.Name
}

func repl(m *mcu.MCU) {
	fmt.Println("MotionBus Host - I2C G-code bridge")
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help":
			printHelp()

		case "send", "g":
			if len(args) < 2 {
				fmt.Println("Usage: send <gcode>")
				continue
			}
			report(m.SendLine(strings.Join(args[1:], " ")))

		case "hold", "!":
			report(m.Realtime(core.CmdFeedHold))

		case "start", "~":
			report(m.Realtime(core.CmdCycleStart))

		case "reset":
			report(m.Realtime(core.CmdReset))

		case "status", "?":
			status, err := m.Status()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println(status)

		case "read":
			reply, err := m.ReadReply()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("% X\n", reply)

		case "stats":
			s := m.GetStats()
			fmt.Printf("lines=%d realtime=%d errors=%d\n", s.Lines, s.Realtimes, s.Errors)

		case "buses":
			names, err := bus.List()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			for _, name := range names {
				fmt.Println(name)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", args[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func report(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  send <gcode>   - Send one G-code line (alias g)")
	fmt.Println("  hold, !        - Feed hold")
	fmt.Println("  start, ~       - Cycle start")
	fmt.Println("  reset          - Soft reset")
	fmt.Println("  status, ?      - Request and print a status report")
	fmt.Println("  read           - Read the staged reply bytes")
	fmt.Println("  stats          - Show traffic counters")
	fmt.Println("  buses          - List I2C buses")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
