// ecfw-sim is an interactive simulator for the power-policy framework.
//
// It spawns the arbiter plus one simulated Type-C port task per
// configured port, then drives plug and capability events from a
// readline console, mirroring how the firmware's driver tasks feed the
// policy service on real hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/ecfw-services/ecfw-go/pkg/config"
	"github.com/ecfw-services/ecfw-go/pkg/log"
	"github.com/ecfw-services/ecfw-go/pkg/policy"
	"github.com/ecfw-services/ecfw-go/pkg/policy/arbiter"
	"github.com/ecfw-services/ecfw-go/pkg/typec"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (default: two unconstrained ports)")
	verbose := flag.Bool("v", false, "log flight-recorder events to the console")
	flag.Parse()

	if err := run(*configPath, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "ecfw-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		zl = zl.Level(zerolog.InfoLevel)
	}

	var recorders []log.Logger
	recorders = append(recorders, zerologRecorder{zl})
	if cfg.EventLog != "" {
		fl, err := log.NewFileLogger(cfg.EventLog)
		if err != nil {
			return err
		}
		defer fl.Close()
		recorders = append(recorders, fl)
	}
	recorder := log.NewMultiLogger(recorders...)

	arb := arbiter.New(arbiter.Config{
		ConsumerBudgetMW: cfg.ConsumerBudgetMW,
		Logger:           recorder,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ports := make(map[policy.DeviceID]*typec.SimulatedPort, len(cfg.Ports))
	for _, pc := range cfg.Ports {
		id := policy.DeviceID(pc.ID)
		port := typec.NewSimulatedPort(policy.NewDevice(id), arb, recorder)
		if err := arb.Register(port); err != nil {
			return fmt.Errorf("register port %d: %w", pc.ID, err)
		}
		go func() { _ = port.Serve(ctx) }()
		ports[id] = port
	}
	zl.Info().Int("ports", len(ports)).Uint32("budget_mw", cfg.ConsumerBudgetMW).Msg("simulator ready")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ecfw> ",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	console := &console{arb: arb, ports: ports, out: rl.Stdout()}
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if done := console.handle(ctx, strings.Fields(strings.TrimSpace(line))); done {
			return nil
		}
	}
}

// console dispatches interactive commands.
type console struct {
	arb   *arbiter.Arbiter
	ports map[policy.DeviceID]*typec.SimulatedPort
	out   io.Writer
}

// handle executes one command line. It returns true when the session
// should end.
func (c *console) handle(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		return false
	}

	var err error
	switch args[0] {
	case "help":
		c.printHelp()
	case "status":
		c.printStatus()
	case "plug":
		err = c.withPort(args, func(p *typec.SimulatedPort) error { return p.PlugInsert(ctx) })
	case "unplug":
		err = c.withPort(args, func(p *typec.SimulatedPort) error { return p.PlugRemove(ctx) })
	case "advertise":
		err = c.advertise(ctx, args)
	case "request":
		err = c.request(args)
	case "grant":
		err = c.withPort(args, func(p *typec.SimulatedPort) error {
			return c.arb.GrantProviderRequest(ctx, p.Device().ID())
		})
	case "disconnect":
		err = c.withPort(args, func(p *typec.SimulatedPort) error {
			return c.arb.Disconnect(ctx, p.Device().ID())
		})
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(c.out, "unknown command %q, try help\n", args[0])
	}

	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

func (c *console) printHelp() {
	fmt.Fprint(c.out, `commands:
  status                                  show all ports
  plug <port>                             insert a plug
  unplug <port>                           remove the plug
  advertise <port> <mV> <mA> [unconstrained]
                                          partner advertises a sink capability
  request <port> <mV> <mA>                partner requests source power
  grant <port>                            grant the pending provider request
  disconnect <port>                       drop the active contract
  exit
`)
}

func (c *console) printStatus() {
	for _, d := range c.arb.Devices() {
		line := fmt.Sprintf("%s  %s", d.ID(), d.State())
		if cap, ok := d.ConsumerCapability(); ok {
			line += fmt.Sprintf("  advertised=%s", cap)
		}
		if cap, ok := d.RequestedProviderCapability(); ok {
			line += fmt.Sprintf("  requested=%s", cap)
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *console) withPort(args []string, fn func(*typec.SimulatedPort) error) error {
	port, err := c.port(args)
	if err != nil {
		return err
	}
	return fn(port)
}

func (c *console) advertise(ctx context.Context, args []string) error {
	port, err := c.port(args)
	if err != nil {
		return err
	}
	cap, err := parseCapability(args[2:])
	if err != nil {
		return err
	}
	consumer := policy.ConsumerPowerCapability{Capability: cap}
	if len(args) > 4 && args[4] == "unconstrained" {
		consumer.Flags |= policy.FlagUnconstrainedPower
	}
	return port.AdvertiseConsumerCapability(ctx, consumer)
}

func (c *console) request(args []string) error {
	port, err := c.port(args)
	if err != nil {
		return err
	}
	cap, err := parseCapability(args[2:])
	if err != nil {
		return err
	}
	return port.RequestProviderCapability(policy.ProviderPowerCapability{Capability: cap})
}

func (c *console) port(args []string) (*typec.SimulatedPort, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: %s <port> ...", args[0])
	}
	id, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("bad port %q", args[1])
	}
	port, ok := c.ports[policy.DeviceID(id)]
	if !ok {
		return nil, fmt.Errorf("no port %d", id)
	}
	return port, nil
}

func parseCapability(args []string) (policy.PowerCapability, error) {
	if len(args) < 2 {
		return policy.PowerCapability{}, fmt.Errorf("expected <mV> <mA>")
	}
	mv, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return policy.PowerCapability{}, fmt.Errorf("bad millivolts %q", args[0])
	}
	ma, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return policy.PowerCapability{}, fmt.Errorf("bad milliamps %q", args[1])
	}
	return policy.PowerCapability{VoltageMV: uint16(mv), CurrentMA: uint16(ma)}, nil
}

// zerologRecorder bridges flight-recorder events onto a zerolog logger.
type zerologRecorder struct {
	log zerolog.Logger
}

// Log writes the event at debug level.
func (z zerologRecorder) Log(event log.Event) {
	e := z.log.Debug().
		Stringer("device", event.DeviceID).
		Stringer("category", event.Category)

	switch {
	case event.Command != nil:
		e = e.Str("command", event.Command.Command)
	case event.Response != nil:
		if event.Response.Err != "" {
			e = e.Str("error", event.Response.Err)
		} else {
			e = e.Str("response", event.Response.Response)
		}
	case event.StateChange != nil:
		e = e.Stringer("from", event.StateChange.From).
			Stringer("to", event.StateChange.To).
			Str("reason", event.StateChange.Reason)
	case event.Error != nil:
		e = e.Str("error", event.Error.Message).Str("context", event.Error.Context)
	}
	e.Msg("power-policy")
}

var _ log.Logger = zerologRecorder{}
