// Command peapod is the EAPOL proxy daemon's entrypoint: CLI flag
// parsing, config loading, logging/PID-file/daemonisation plumbing,
// and wiring everything into internal/proxy's event loop (spec §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kangtastic/peapod/internal"
	"github.com/kangtastic/peapod/internal/config"
	"github.com/kangtastic/peapod/internal/ifacetable"
	"github.com/kangtastic/peapod/internal/pidfile"
	"github.com/kangtastic/peapod/internal/proxy"
)

const (
	defaultConfigFile = "/etc/peapod.conf"
	defaultPIDFile    = "/var/run/peapod.pid"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		help        = pflag.BoolP("help", "h", false, "print usage and exit")
		daemon      = pflag.BoolP("daemon", "d", false, "detach and run in the background")
		pidFile     = pflag.StringP("pid-file", "p", defaultPIDFile, "path to the PID file")
		configFile  = pflag.StringP("config-file", "c", defaultConfigFile, "path to the config file")
		testConfig  = pflag.Bool("test-config", false, "parse and validate the config file, then exit")
		syslog      = pflag.BoolP("syslog", "s", false, "also log to syslog")
		quietScript = pflag.BoolP("quiet-script", "q", false, "suppress logging of successful script exits")
		noColor     = pflag.Bool("no-color", false, "disable ANSI color in console log output")
		oneshot     = pflag.BoolP("oneshot", "o", false, "exit on the first runtime error instead of restarting")
		verbosity   = pflag.CountP("verbose", "v", "increase log verbosity (up to 3 times)")
	)
	// --log-file takes an optional argument: bare flag uses
	// peapodlog.DefaultLogFile, same optional-argument contract as a
	// program like gzip's -S.
	logFile := pflag.StringP("log-file", "l", "", "write logs to PATH (default "+peapodlogDefault+" if bare)")
	pflag.Lookup("log-file").NoOptDefVal = peapodlogDefault

	pflag.Parse()

	if *help {
		pflag.Usage()
		return 0
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *testConfig {
		fmt.Fprintf(os.Stderr, "%s: config OK (%d interfaces)\n", *configFile, len(cfg.Ifaces))
		return 0
	}

	if *daemon {
		if err := daemonize(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	logger, closeLog, err := newLogger(*logFile, *syslog, *verbosity, *noColor, *daemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	pf, err := pidfile.Acquire(*pidFile)
	if err != nil {
		logger.Error("cannot acquire pid file", "path", *pidFile, "err", err)
		return 1
	}
	defer pf.Remove()

	buildTable := func() (*ifacetable.Table, error) {
		return config.Resolve(cfg, resolveInterface)
	}

	opts := proxy.Options{
		Oneshot:     *oneshot,
		QuietScript: *quietScript,
		Logger:      logger,
	}

	if err := proxy.Loop(opts, buildTable); err != nil {
		logger.Error("fatal error", "err", err)
		return 1
	}
	return 0
}

const peapodlogDefault = "/var/log/peapod.log"

func loadConfig(path string) (*config.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg, err := config.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.CheckScriptPaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveInterface backs config.Resolver with the host's real network
// stack (spec §3: "mtu ... discovered at startup").
func resolveInterface(name string) (index, mtu int, err error) {
	iface, err := internal.InterfaceByName(name)
	if err != nil {
		return 0, 0, err
	}
	return iface.Index, iface.MTU, nil
}
