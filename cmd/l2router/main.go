/*
 * L2 Router - A Layer 2 OpenFlow Controller
 *
 * Copyright (C) 2026 The L2 Router Authors.
 * Portions Copyright (C) 2015 Samjung Data Service, Inc.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/harmjan/l2-router/api"
	"github.com/harmjan/l2-router/log"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound"
	"github.com/harmjan/l2-router/openflow/of13"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	programName     = "l2router"
	programVersion  = "0.1.0"
	defaultLogLevel = logging.INFO
	// Grace period for the sessions to close on shutdown.
	shutdownTimeout = 5 * time.Second
	// A dead switch is dropped after three unanswered keepalives.
	keepAliveInterval = 5 * time.Second
)

var (
	logger      = logging.MustGetLogger("main")
	levels      logging.LeveledBackend
	versionFlag = flag.Bool("version", false, "print the version and exit")
	configFlag  = flag.String("config", fmt.Sprintf("/usr/local/etc/%v.yaml", programName), "path of the YAML configuration file")
)

var defaults = map[string]interface{}{
	"default.port":            6653,
	"default.log_level":       "info",
	"default.applications":    "initializer, broadcast, router, portsecurity",
	"rest.port":               7070,
	"port_security.edge_only": false,
}

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Printf("%v %v\n", programName, programVersion)
		return
	}

	if err := loadConfig(*configFlag); err != nil {
		logger.Fatalf("failed to load the configuration: %v", err)
	}
	if err := setupLog(logLevel(viper.GetString("default.log_level"))); err != nil {
		logger.Fatalf("failed to set up syslog: %v", err)
	}

	manager, err := newManager()
	if err != nil {
		logger.Fatalf("failed to enable the applications: %v", err)
	}
	sessions := network.NewSessions()
	controller := network.NewController(of13.NewFactory(), sessions)
	manager.AddEventSender(controller)

	ctx, cancel := context.WithCancel(context.Background())
	go controller.Run(ctx)
	go serveAPI(controller, manager)
	go handleSignals(cancel, sessions, func(w io.Writer) {
		dumpStatus(w, controller, sessions, manager)
	})

	port := viper.GetInt("default.port")
	lc := net.ListenConfig{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable:   true,
			Idle:     keepAliveInterval,
			Interval: keepAliveInterval,
			Count:    3,
		},
	}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		logger.Fatalf("failed to listen for switches on port %v: %v", port, err)
	}
	acceptSwitches(ctx, ln, sessions, controller)
	sessions.Wait()
}

func loadConfig(path string) error {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	if err := validateConfig(); err != nil {
		return err
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		// Editors truncate the file first. Only a completed write is reloaded.
		if e.Op != fsnotify.Write || levels == nil {
			return
		}
		levels.SetLevel(logLevel(viper.GetString("default.log_level")), "")
	})
	viper.WatchConfig()

	return nil
}

func validPort(key string) error {
	if port := viper.GetInt(key); port <= 0 || port > 0xFFFF {
		return fmt.Errorf("%v out of range: %v", key, port)
	}

	return nil
}

func validateConfig() error {
	for _, key := range []string{"default.port", "rest.port"} {
		if err := validPort(key); err != nil {
			return err
		}
	}
	for _, key := range []string{"default.log_level", "default.applications"} {
		if viper.GetString(key) == "" {
			return fmt.Errorf("empty %v", key)
		}
	}
	if !viper.GetBool("rest.tls") {
		return nil
	}
	if viper.GetString("rest.cert_file") == "" || viper.GetString("rest.key_file") == "" {
		return errors.New("rest.tls requires both rest.cert_file and rest.key_file")
	}

	return nil
}

func serveAPI(controller *network.Controller, manager *northbound.Manager) {
	srv := &api.Server{
		Port:       uint16(viper.GetInt("rest.port")),
		Controller: controller,
		Hosts:      manager,
	}
	if viper.GetBool("rest.tls") {
		srv.TLS.Cert = viper.GetString("rest.cert_file")
		srv.TLS.Key = viper.GetString("rest.key_file")
	}
	if err := srv.Serve(); err != nil {
		logger.Fatalf("REST API server stopped: %v", err)
	}
}

// handleSignals shuts down on SIGINT or SIGTERM and writes the status to stdout on SIGHUP.
func handleSignals(cancel context.CancelFunc, sessions *network.Sessions, status func(io.Writer)) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range c {
		switch sig {
		case syscall.SIGHUP:
			status(os.Stdout)
		default:
			logger.Warningf("received %v, shutting down", sig)
			cancel()
			drained := make(chan struct{})
			go func() {
				sessions.Wait()
				close(drained)
			}()
			select {
			case <-drained:
			case <-time.After(shutdownTimeout):
				logger.Warning("sessions did not close in time")
			}
			os.Exit(0)
		}
	}
}

func dumpStatus(w io.Writer, sections ...fmt.Stringer) {
	titles := []string{"Controller", "Sessions", "Applications"}
	for i, v := range sections {
		title := "Status"
		if i < len(titles) {
			title = titles[i]
		}
		fmt.Fprintf(w, "== %v ==\n%v\n", title, v)
	}
}

func setupLog(level logging.Level) error {
	backend, err := log.NewSyslog(programName)
	if err != nil {
		return err
	}
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(`%{level}: %{shortpkg}.%{shortfunc}: %{message}`))
	levels = logging.AddModuleLevel(formatted)
	// An empty module name applies to every logger.
	levels.SetLevel(level, "")
	logging.SetBackend(levels)

	return nil
}

func logLevel(name string) logging.Level {
	level, err := logging.LogLevel(strings.ToUpper(name))
	if err != nil {
		logger.Infof("unknown log level %q, using %v", name, defaultLogLevel)
		return defaultLogLevel
	}

	return level
}

// acceptSwitches hands every control connection on ln over to sessions until ctx is canceled.
func acceptSwitches(ctx context.Context, ln net.Listener, sessions *network.Sessions, submitter network.Submitter) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("stopped accepting switch connections")
				return
			}
			logger.Errorf("failed to accept a switch connection: %v", err)
			// Transient errors such as EMFILE
			time.Sleep(100 * time.Millisecond)
			continue
		}
		logger.Infof("switch connection from %v", conn.RemoteAddr())
		sessions.AddConnection(ctx, conn, submitter)
	}
}

func newManager() (*northbound.Manager, error) {
	apps, err := parseApplications()
	if err != nil {
		return nil, err
	}

	manager := northbound.NewManager()
	for _, name := range apps {
		if err := manager.Enable(name); err != nil {
			return nil, errors.Wrapf(err, "enabling %v", name)
		}
	}

	return manager, nil
}

// parseApplications splits the comma separated default.applications list.
func parseApplications() ([]string, error) {
	apps := strings.FieldsFunc(viper.GetString("default.applications"), func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t'
	})
	if len(apps) == 0 {
		return nil, errors.New("no application in default.applications")
	}

	return apps, nil
}
