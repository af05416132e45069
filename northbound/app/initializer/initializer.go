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

// Package initializer prepares the pipeline of a newly joined switch.
package initializer

import (
	"fmt"

	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app"
	"github.com/harmjan/l2-router/openflow"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("initializer")
)

type Initializer struct {
	app.BaseProcessor
}

func New() *Initializer {
	return &Initializer{}
}

func (r *Initializer) Name() string {
	return "Initializer"
}

func (r *Initializer) String() string {
	return fmt.Sprintf("%v", r.Name())
}

func (r *Initializer) OnSwitchJoin(finder network.Finder, device *network.Device) error {
	if err := initialize(device); err != nil {
		// Other applications still have to track the switch.
		logger.Errorf("failed to initialize the device: DPID=%v, err=%v", device.ID(), err)
	} else {
		logger.Infof("initialized the device: DPID=%v", device.ID())
	}

	return r.BaseProcessor.OnSwitchJoin(finder, device)
}

func initialize(device *network.Device) error {
	// Remove every entry we own, including the learned hosts of a previous run.
	for _, table := range []uint8{openflow.TableDestination, openflow.TableSource} {
		if err := device.DeleteByTagBits(table, openflow.TagBase); err != nil {
			return errors.Wrap(err, fmt.Sprintf("removing owned flows of table %v", table))
		}
	}
	// The table-miss entry of the first table refers to this group, so it goes first.
	if err := device.InstallFloodGroup(nil); err != nil {
		return errors.Wrap(err, "installing an empty flood group")
	}
	if err := device.InstallTableMiss(); err != nil {
		return errors.Wrap(err, "installing table-miss flows")
	}

	return nil
}
