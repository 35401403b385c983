// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/0xsoniclabs/callsim/scenario"
	"github.com/urfave/cli/v2"
)

var List = cli.Command{
	Action: list,
	Name:   "list",
	Usage:  "lists the canonical scenarios",
}

func list(context *cli.Context) error {
	for _, s := range scenario.All() {
		fmt.Printf("%-12s %s\n", s.Name, s.Description)
	}
	return nil
}
