// ecmon is the operator front-end for the embedded system-management
// controller: one-shot queries from the command line plus a monitor mode
// that runs the bus services until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
	"ecio-go/drivers/eeprom24"
	"ecio-go/platform"
	"ecio-go/portio"
	heartbeatsvc "ecio-go/services/heartbeat"
	hwmonsvc "ecio-go/services/hwmon"
	watchdogsvc "ecio-go/services/watchdog"
	"ecio-go/types"
	"ecio-go/x/mathx"
)

func main() {
	app := cli.NewApp()
	app.Name = "ecmon"
	app.Usage = "embedded system-management controller monitor"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "platform, p", Usage: "platform descriptor (YAML)"},
		cli.BoolFlag{Name: "sim", Usage: "talk to a simulated controller"},
		cli.IntFlag{Name: "command-port", Value: ahc1ec0.CommandPortDefault, Usage: "command/status I/O port"},
		cli.IntFlag{Name: "data-port", Value: ahc1ec0.DataPortDefault, Usage: "data I/O port"},
		cli.BoolFlag{Name: "verbose, v", Usage: "debug logging"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("verbose") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Commands = []cli.Command{
		sensorsCmd,
		watchdogCmd,
		gpioCmd,
		ledCmd,
		brightnessCmd,
		eepromCmd,
		monitorCmd,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// -----------------------------------------------------------------------------
// Bring-up
// -----------------------------------------------------------------------------

type rig struct {
	dev     *ahc1ec0.Device
	desc    *platform.Descriptor
	mask    platform.Mask
	profile *ahc1ec0.Profile
}

func setup(c *cli.Context) (*rig, error) {
	desc := platform.Default()
	if path := c.GlobalString("platform"); path != "" {
		var err error
		if desc, err = platform.Load(path); err != nil {
			return nil, err
		}
	}
	mask, err := desc.Mask()
	if err != nil {
		return nil, err
	}
	profile, err := desc.SensorProfile()
	if err != nil {
		return nil, err
	}

	var port ahc1ec0.PortIO
	if c.GlobalBool("sim") {
		port = demoSim()
	} else {
		if port, err = portio.Open(); err != nil {
			return nil, err
		}
	}
	cfg := ahc1ec0.DefaultConfig()
	cfg.CommandPort = uint16(c.GlobalInt("command-port"))
	cfg.DataPort = uint16(c.GlobalInt("data-port"))
	dev, err := ahc1ec0.New(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &rig{dev: dev, desc: desc, mask: mask, profile: profile}, nil
}

// demoSim populates a simulated controller with a plausible board: all
// template rails routed, both thermal registers live, the run/error LEDs
// and an identification EEPROM on SMBus channel 0.
func demoSim() *ecsim.Controller {
	sim := ecsim.New()
	sim.AddTableEntry(0x50, 0)
	sim.AddTableEntry(0x59, 1)
	sim.AddTableEntry(0x63, 2)
	sim.AddTableEntry(0x65, 3)
	sim.AddTableEntry(0x74, 4)
	sim.AddTableEntry(ahc1ec0.DIDLEDRun, 8)
	sim.AddTableEntry(ahc1ec0.DIDLEDErr, 9)
	sim.AddTableEntry(0x28, 10)
	sim.SetAD(0, 0x12C) // ~3.0V battery
	sim.SetAD(1, 0x1F9)
	sim.SetAD(2, 0x219)
	sim.SetAD(3, 0x0FA)
	sim.SetAD(4, 0x050)
	sim.SetACPI(0x61, 52)
	sim.SetACPI(0x60, 38)
	sim.AddGPIO(5, 0, ahc1ec0.GPIODirInput)
	sim.AddGPIO(6, 1, ahc1ec0.GPIODirOutput)
	slave := sim.AddSMBusSlave(0x50)
	copy(slave.Regs[:], "ecio demo board")
	return sim
}

// -----------------------------------------------------------------------------
// sensors
// -----------------------------------------------------------------------------

var sensorsCmd = cli.Command{
	Name:  "sensors",
	Usage: "read every sensor channel once",
	Action: func(c *cli.Context) error {
		r, err := setup(c)
		if err != nil {
			return err
		}
		defer r.dev.Close()
		s := ahc1ec0.NewSensors(r.dev, r.profile)

		for ch := 0; ch < s.InCount(); ch++ {
			label, _ := s.InLabel(ch)
			v, err := s.ReadIn(ch)
			if err == ahc1ec0.ErrNotConfigured {
				fmt.Printf("%-12s n/a\n", label)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Printf("%-12s %d.%03d\n", label, v/1000, v%1000)
		}
		for ch := 0; ch < s.TempCount(); ch++ {
			label, _ := s.TempLabel(ch)
			v, err := s.ReadTemp(ch)
			if err != nil {
				return err
			}
			crit, _ := s.TempCrit(ch)
			fmt.Printf("%-12s %d.%03d C (crit %d C)\n", label, v/1000, v%1000, crit/1000)
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// watchdog
// -----------------------------------------------------------------------------

var watchdogCmd = cli.Command{
	Name:  "watchdog",
	Usage: "control the reset countdown",
	Subcommands: []cli.Command{
		{
			Name:      "start",
			Usage:     "arm with a timeout in seconds",
			ArgsUsage: "<seconds>",
			Action: func(c *cli.Context) error {
				seconds, err := intArg(c, 0)
				if err != nil {
					return err
				}
				if seconds > watchdogsvc.MaxSeconds {
					return fmt.Errorf("timeout %ds above the %ds limit", seconds, watchdogsvc.MaxSeconds)
				}
				return withWatchdog(c, func(wd *ahc1ec0.Watchdog) error {
					return wd.Start(seconds)
				})
			},
		},
		{
			Name:  "stop",
			Usage: "disarm",
			Action: func(c *cli.Context) error {
				return withWatchdog(c, (*ahc1ec0.Watchdog).Stop)
			},
		},
		{
			Name:  "ping",
			Usage: "restart the countdown",
			Action: func(c *cli.Context) error {
				return withWatchdog(c, (*ahc1ec0.Watchdog).Ping)
			},
		},
	},
}

func withWatchdog(c *cli.Context, f func(*ahc1ec0.Watchdog) error) error {
	r, err := setup(c)
	if err != nil {
		return err
	}
	defer r.dev.Close()
	return f(ahc1ec0.NewWatchdog(r.dev))
}

// -----------------------------------------------------------------------------
// gpio
// -----------------------------------------------------------------------------

var gpioCmd = cli.Command{
	Name:  "gpio",
	Usage: "read and drive controller pins",
	Subcommands: []cli.Command{
		{
			Name:      "get",
			ArgsUsage: "<pin>",
			Action: func(c *cli.Context) error {
				pin, err := intArg(c, 0)
				if err != nil {
					return err
				}
				r, err := setup(c)
				if err != nil {
					return err
				}
				defer r.dev.Close()
				level, err := r.dev.GPIO(byte(pin)).Level()
				if err != nil {
					return err
				}
				if level {
					fmt.Println("1")
				} else {
					fmt.Println("0")
				}
				return nil
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<pin> <0|1>",
			Action: func(c *cli.Context) error {
				pin, err := intArg(c, 0)
				if err != nil {
					return err
				}
				level, err := intArg(c, 1)
				if err != nil {
					return err
				}
				r, err := setup(c)
				if err != nil {
					return err
				}
				defer r.dev.Close()
				return r.dev.GPIO(byte(pin)).SetLevel(level != 0)
			},
		},
		{
			Name:      "dir",
			Usage:     "read, or set with in/out",
			ArgsUsage: "<pin> [in|out]",
			Action: func(c *cli.Context) error {
				pin, err := intArg(c, 0)
				if err != nil {
					return err
				}
				r, err := setup(c)
				if err != nil {
					return err
				}
				defer r.dev.Close()
				p := r.dev.GPIO(byte(pin))
				switch c.Args().Get(1) {
				case "":
					dir, err := p.Direction()
					if err != nil {
						return err
					}
					if dir == ahc1ec0.GPIODirInput {
						fmt.Println("in")
					} else {
						fmt.Println("out")
					}
					return nil
				case "in":
					return p.SetDirection(ahc1ec0.GPIODirInput)
				case "out":
					return p.SetDirection(ahc1ec0.GPIODirOutput)
				default:
					return fmt.Errorf("direction must be in or out")
				}
			},
		},
	},
}

// -----------------------------------------------------------------------------
// led / brightness
// -----------------------------------------------------------------------------

var ledNames = map[string]byte{
	"run":      ahc1ec0.DIDLEDRun,
	"err":      ahc1ec0.DIDLEDErr,
	"recovery": ahc1ec0.DIDLEDSysRecovery,
	"d105":     ahc1ec0.DIDLEDD105G,
	"d106":     ahc1ec0.DIDLEDD106G,
	"d107":     ahc1ec0.DIDLEDD107G,
}

var ledPatterns = map[string]ahc1ec0.LEDPattern{
	"off":    ahc1ec0.LEDOff,
	"on":     ahc1ec0.LEDOn,
	"fast":   ahc1ec0.LEDFast,
	"normal": ahc1ec0.LEDNormal,
	"slow":   ahc1ec0.LEDSlow,
}

var ledCmd = cli.Command{
	Name:      "led",
	Usage:     "program an LED lane",
	ArgsUsage: "<lane 0-3> <run|err|recovery|d105|d106|d107> <off|on|fast|normal|slow>",
	Action: func(c *cli.Context) error {
		lane, err := intArg(c, 0)
		if err != nil {
			return err
		}
		did, ok := ledNames[c.Args().Get(1)]
		if !ok {
			return fmt.Errorf("unknown led %q", c.Args().Get(1))
		}
		pattern, ok := ledPatterns[c.Args().Get(2)]
		if !ok {
			return fmt.Errorf("unknown pattern %q", c.Args().Get(2))
		}
		r, err := setup(c)
		if err != nil {
			return err
		}
		defer r.dev.Close()
		led, err := r.dev.LED(lane, did)
		if err != nil {
			return err
		}
		return led.SetPattern(pattern)
	},
}

var brightnessCmd = cli.Command{
	Name:      "brightness",
	Usage:     "read, or set 0-255",
	ArgsUsage: "[value]",
	Action: func(c *cli.Context) error {
		r, err := setup(c)
		if err != nil {
			return err
		}
		defer r.dev.Close()
		if c.NArg() == 0 {
			v, err := r.dev.Brightness()
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}
		v, err := intArg(c, 0)
		if err != nil {
			return err
		}
		return r.dev.SetBrightness(byte(mathx.Clamp(v, 0, 255)))
	},
}

// -----------------------------------------------------------------------------
// eeprom
// -----------------------------------------------------------------------------

var eepromCmd = cli.Command{
	Name:  "eeprom",
	Usage: "dump the identification EEPROM on SMBus channel 0",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "addr", Value: 0x50, Usage: "7-bit slave address"},
		cli.IntFlag{Name: "offset", Value: 0},
		cli.IntFlag{Name: "len", Value: 32},
	},
	Action: func(c *cli.Context) error {
		r, err := setup(c)
		if err != nil {
			return err
		}
		defer r.dev.Close()
		smb, err := r.dev.SMBus(0)
		if err != nil {
			return err
		}
		rom := eeprom24.New(smb, uint16(c.Int("addr")), 0)
		p := make([]byte, c.Int("len"))
		if err := rom.ReadAt(byte(c.Int("offset")), p); err != nil {
			return err
		}
		for i := 0; i < len(p); i += 16 {
			end := i + 16
			if end > len(p) {
				end = len(p)
			}
			fmt.Printf("%04x  % x\n", c.Int("offset")+i, p[i:end])
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// monitor
// -----------------------------------------------------------------------------

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "run the bus services until interrupted",
	Flags: []cli.Flag{
		cli.DurationFlag{Name: "interval", Value: 2 * time.Second, Usage: "sensor poll interval"},
	},
	Action: func(c *cli.Context) error {
		r, err := setup(c)
		if err != nil {
			return err
		}
		defer r.dev.Close()
		log := logrus.WithField("board", r.desc.Board)
		log.WithField("profile", r.profile.Kind.String()).
			WithField("subsystems", r.mask.Names()).Info("controller up")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b := bus.NewBus(64)
		sys := b.NewConnection("ecmon")
		sys.Publish(sys.NewMessage(bus.T("platform", "info"), types.BoardInfo{
			Board:      r.desc.Board,
			Profile:    r.profile.Kind.String(),
			Subsystems: r.mask.Names(),
		}, true))

		hb := heartbeatsvc.New(b.NewConnection("heartbeat"), r.dev, 0,
			logrus.NewEntry(logrus.StandardLogger()))
		go hb.Run(ctx)

		if r.mask.Has(platform.Hwmon) {
			svc := hwmonsvc.New(b.NewConnection("hwmon"), ahc1ec0.NewSensors(r.dev, r.profile),
				c.Duration("interval"), logrus.NewEntry(logrus.StandardLogger()))
			go svc.Run(ctx)
		}
		if r.mask.Has(platform.Watchdog) {
			svc := watchdogsvc.New(b.NewConnection("watchdog"), ahc1ec0.NewWatchdog(r.dev),
				logrus.NewEntry(logrus.StandardLogger()))
			go svc.Run(ctx)
		}

		sub := sys.Subscribe(bus.T(bus.MultiWild))
		defer sys.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				log.Info("shutting down")
				return nil
			case msg := <-sub.Channel():
				switch p := msg.Payload.(type) {
				case types.Reading:
					log.WithField("channel", p.Label).WithField("value", p.Value).Debug("reading")
				case types.WatchdogState:
					log.WithField("armed", p.Armed).WithField("timeout_s", p.TimeoutS).Info("watchdog")
				}
			}
		}
	},
}

// -----------------------------------------------------------------------------

func intArg(c *cli.Context, i int) (int, error) {
	s := c.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("missing argument %d", i+1)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("argument %q is not a number", s)
	}
	return v, nil
}
