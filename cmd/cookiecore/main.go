// Command cookiecore is the host-side entry point: it loads a machine
// config, opens the configured serial port, and runs the motion/G-code
// core against it while serving an operator debug console.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/xionluhnis/print-me-a-cookie/config"
	"github.com/xionluhnis/print-me-a-cookie/control"
	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/host/serial"
	"github.com/xionluhnis/print-me-a-cookie/logging"
	"github.com/xionluhnis/print-me-a-cookie/serialio"
	"github.com/xionluhnis/print-me-a-cookie/storage"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	configPath = flag.String("config", "", "Path to machine config (JSON or YAML); default uses a built-in config")
	gcodeDir   = flag.String("gcode-dir", "./gcode", "Directory of G-code files the storage browser lists")
	tickPeriod = flag.Duration("tick", time.Millisecond, "Motion tick period")
)

func main() {
	flag.Parse()

	var cfg *config.MachineConfig
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
			os.Exit(1)
		}
		cfg, err = config.Load(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parsing config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.DefaultCartesianConfig()
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	core.SetErrorSink(logging.ErrorSink{})

	serialCfg := serial.DefaultConfig(*device)
	serialCfg.Baud = cfg.Serial.Baud
	serialCfg.ReadTimeout = cfg.Serial.ReadTimeout
	port, err := serial.Open(serialCfg)
	if err != nil {
		logging.Error("failed to open serial port", zap.Error(err), zap.String("device", *device))
		os.Exit(1)
	}
	defer port.Close()

	browser, err := storage.New(*gcodeDir)
	if err != nil {
		logging.Error("failed to open gcode directory", zap.Error(err), zap.String("dir", *gcodeDir))
		os.Exit(1)
	}

	gpio := newHostGPIO()
	input := serialio.NewPortSource(port)
	mgr, err := control.NewManager(cfg, gpio, input)
	if err != nil {
		logging.Error("failed to build motion manager", zap.Error(err))
		os.Exit(1)
	}
	mgr.OnStateChange(func(state int) {
		logging.Debug("machine state changed", zap.Int("state", state))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := mgr.Run(ctx, *tickPeriod); err != nil {
			logging.Info("motion loop stopped", zap.Error(err))
		}
	}()

	runConsole(ctx, mgr, browser)
}

// runConsole is the operator-facing debug REPL, separate from the G-code
// stream the serial port carries: commands are tokenized with shlex the
// way a shell would, rather than a hand-rolled space splitter.
func runConsole(ctx context.Context, mgr *control.Manager, browser *storage.Browser) {
	fmt.Println("cookiecore debug console - type 'help' for commands, 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil || len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
		case "list":
			entries, err := browser.List()
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			for _, e := range entries {
				fmt.Printf("[%d] %s (%d)\n", e.ID, e.Name, e.Size)
			}
			fmt.Println("** EOF **")
		case "stepper":
			handleStepperCommand(mgr, args[1:])
		case "stop":
			mgr.Stop()
			fmt.Println("idle axes disabled")
		default:
			fmt.Printf("unknown command: %s (type 'help' for available commands)\n", args[0])
		}
	}
}

func handleStepperCommand(mgr *control.Manager, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: stepper <x|y|z|e> <enable|disable|value>")
		return
	}
	s := mgr.Stepper(args[0])
	if s == nil {
		fmt.Printf("unknown axis: %s\n", args[0])
		return
	}
	switch args[1] {
	case "enable":
		s.Enable()
	case "disable":
		s.Disable()
	case "value":
		fmt.Println(s.Value())
	default:
		fmt.Printf("unknown stepper command: %s\n", args[1])
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  list                       - list G-code files on the configured directory")
	fmt.Println("  stepper <axis> enable      - enable one axis's driver")
	fmt.Println("  stepper <axis> disable     - disable one axis's driver")
	fmt.Println("  stepper <axis> value       - print one axis's step count")
	fmt.Println("  stop                       - disable every idle axis")
	fmt.Println("  quit/exit/q                - exit the program")
	fmt.Println()
}
