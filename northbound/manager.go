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

package northbound

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app"
	"github.com/harmjan/l2-router/northbound/app/broadcast"
	"github.com/harmjan/l2-router/northbound/app/initializer"
	"github.com/harmjan/l2-router/northbound/app/portsecurity"
	"github.com/harmjan/l2-router/northbound/app/router"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("northbound")
)

type EventSender interface {
	SetEventListener(network.EventListener)
}

type application struct {
	instance app.Processor
	enabled  bool
}

type Manager struct {
	mutex      sync.Mutex
	apps       map[string]*application // Registered applications
	head, tail app.Processor
	router     *router.Router
}

func NewManager() *Manager {
	v := &Manager{
		apps:   make(map[string]*application),
		router: router.New(),
	}
	// Registering north-bound applications
	v.register(initializer.New())
	v.register(broadcast.New())
	v.register(v.router)
	v.register(portsecurity.New())

	return v
}

func (r *Manager) register(app app.Processor) {
	r.apps[strings.ToUpper(app.Name())] = &application{
		instance: app,
		enabled:  false,
	}
}

// XXX: Caller should lock the mutex before they call this function
func (r *Manager) checkDependencies(appNames []string) error {
	for _, name := range appNames {
		app, ok := r.apps[strings.ToUpper(name)]
		if !ok || !app.enabled {
			return fmt.Errorf("%v application is not loaded", name)
		}
	}

	return nil
}

// Enable appends the application to the processor chain. Applications are called in the order they are enabled.
func (r *Manager) Enable(appName string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	logger.Debugf("enabling %v application..", appName)
	v, ok := r.apps[strings.ToUpper(appName)]
	if !ok {
		return fmt.Errorf("unknown application: %v", appName)
	}
	if v.enabled {
		return fmt.Errorf("already enabled application: %v", appName)
	}
	app := v.instance

	if err := app.Init(); err != nil {
		return errors.Wrap(err, "initializing application")
	}
	if err := r.checkDependencies(app.Dependencies()); err != nil {
		return errors.Wrap(err, "checking dependencies")
	}
	v.enabled = true
	logger.Infof("enabled %v application", app.Name())

	if r.head == nil {
		r.head = app
		r.tail = app
		return nil
	}
	r.tail.SetNext(app)
	r.tail = app

	return nil
}

func (r *Manager) AddEventSender(sender EventSender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.head == nil {
		return
	}
	sender.SetEventListener(r.head)
}

// Hosts returns the learned hosts. The result is empty if the router application is not enabled.
func (r *Manager) Hosts() []router.Host {
	r.mutex.Lock()
	enabled := r.apps[strings.ToUpper(r.router.Name())].enabled
	r.mutex.Unlock()

	if !enabled {
		return nil
	}
	return r.router.Hosts()
}

func (r *Manager) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var buf bytes.Buffer
	app := r.head
	for app != nil {
		buf.WriteString(fmt.Sprintf("%v\n", app))
		next, ok := app.Next()
		if !ok {
			break
		}
		app = next
	}

	return buf.String()
}
