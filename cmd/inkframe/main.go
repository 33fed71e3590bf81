package main

import (
	"flag"
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/velotales/inkframe/internal/frame"
	"github.com/velotales/inkframe/internal/panel"
	"github.com/velotales/inkframe/internal/version"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const configSuffix = "inkframe"

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of inkframe config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nAn e-ink picture frame\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Refresh the frame\n")
		fmt.Printf("  test      Show the test card\n")
		fmt.Printf("  panels    List the supported panels\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runOnce := runCmd.Bool("once", false, "Refresh once and exit without programming the wake alarm")

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run [OPTIONS]\n", mainCommand)
		fmt.Printf("\nRefresh the frame\n")
		fmt.Printf("\nOptions:\n")
		runCmd.PrintDefaults()
	}

	// test command
	testCmd := flag.NewFlagSet("test", flag.ExitOnError)

	testCmd.Usage = func() {
		fmt.Printf("\nUsage: %s test\n", mainCommand)
		fmt.Printf("\nShow the test card\n")
	}

	// panels command
	panelsCmd := flag.NewFlagSet("panels", flag.ExitOnError)

	panelsCmd.Usage = func() {
		fmt.Printf("\nUsage: %s panels\n", mainCommand)
		fmt.Printf("\nList the supported panels\n")
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	switch flag.Arg(0) {
	case "run":
		runCmd.Parse(flag.Args()[1:])
		if runCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			runCmd.Usage()
			os.Exit(1)
		}
	case "test":
		testCmd.Parse(flag.Args()[1:])
		if testCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			testCmd.Usage()
			os.Exit(1)
		}
	case "panels":
		panelsCmd.Parse(flag.Args()[1:])
		if panelsCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			panelsCmd.Usage()
			os.Exit(1)
		}
	case "version":
		versionCmd.Parse(flag.Args()[1:])
		if versionCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			versionCmd.Usage()
			os.Exit(1)
		}
	default:
		fmt.Printf("\n%s is not an inkframe command\n", flag.Args()[0])
		flag.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	if versionCmd.Parsed() {
		fmt.Printf("Version %s\n", version.App.String())
		return
	}

	if panelsCmd.Parsed() {
		for _, name := range panel.Names() {
			fmt.Println(name)
		}
		return
	}

	// Create the frame
	frameApp := frame.NewFrameApp(*configDir, *debugMode)

	if testCmd.Parsed() {
		if err := frameApp.ShowTestCard(); err != nil {
			logrus.Fatalf("Unable to show the test card: %v", err)
		}
		return
	}

	if runCmd.Parsed() {
		// Without a ups there is no wake alarm to program, a single
		// refresh per invocation is the cron friendly behaviour
		if *runOnce || frameApp.FrameParam.PowerParam == nil {
			if err := frameApp.RunOnce(); err != nil {
				logrus.Fatalf("Refresh failed: %v", err)
			}
			return
		}

		// Listen stop signal
		ch := make(chan os.Signal)
		signal.Notify(ch, os.Interrupt, os.Kill, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT, syscall.SIGHUP, syscall.SIGUSR1)

		// Start the frame
		frameApp.Start()

		sig := <-ch
		logrus.Infof("Received signal: %v", sig)
		frameApp.Stop(sig == syscall.SIGUSR1)
	}

}
