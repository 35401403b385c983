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
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xsoniclabs/callsim/archive"
	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/scenario"
	"github.com/0xsoniclabs/callsim/vm"
	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
)

var Run = cli.Command{
	Action:    addMemoryDiagnoses(run),
	Name:      "run",
	Usage:     "runs a canonical scenario (or 'all') and reports the outcome",
	ArgsUsage: "<scenario>",
	Flags: []cli.Flag{
		&traceFlag,
		&archiveFlag,
		&archiveBackendFlag,
		&diagnosticsFlag,
	},
}

var (
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "print the call trace of every transaction",
	}
	archiveFlag = cli.StringFlag{
		Name:  "archive",
		Usage: "directory to archive transaction records in",
	}
	archiveBackendFlag = cli.StringFlag{
		Name:  "archive-backend",
		Usage: "archive storage backend, 'leveldb' or 'sqlite'",
		Value: "leveldb",
	}
	diagnosticsFlag = cli.BoolFlag{
		Name:  "diagnostics",
		Usage: "report resource usage after the run",
	}
)

func run(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing scenario name; see 'callsim list'")
	}

	name := context.Args().Get(0)
	var scenarios []scenario.Scenario
	if name == "all" {
		scenarios = scenario.All()
	} else {
		found, ok := scenario.ByName(name)
		if !ok {
			return fmt.Errorf("unknown scenario %q; see 'callsim list'", name)
		}
		scenarios = []scenario.Scenario{found}
	}

	var writer *archive.Writer
	if dir := context.String(archiveFlag.Name); dir != "" {
		store, err := openStore(context.String(archiveBackendFlag.Name), dir)
		if err != nil {
			return err
		}
		writer = archive.NewWriter(store)
		defer func() {
			count, _ := writer.Count().Await()
			fmt.Printf("Archived %d transaction records in %s\n", count, dir)
			if err := writer.Close(); err != nil {
				fmt.Printf("Archive issues: %v\n", err)
			}
		}()
	}

	for _, s := range scenarios {
		if err := runScenario(s, writer, context.Bool(traceFlag.Name)); err != nil {
			return err
		}
	}
	return nil
}

func openStore(backend, dir string) (archive.Store, error) {
	switch backend {
	case "leveldb":
		return archive.OpenLevelDbStore(dir)
	case "sqlite":
		return archive.OpenSqliteStore(filepath.Join(dir, "archive.db"))
	}
	return nil, fmt.Errorf("unknown archive backend %q", backend)
}

func runScenario(s scenario.Scenario, writer *archive.Writer, trace bool) error {
	fmt.Printf("--- %s: %s ---\n", s.Name, s.Description)

	runner := scenario.NewRunner(s.Config)
	if writer != nil {
		runner.SetArchive(writer)
	}

	for i, result := range s.Run(runner) {
		fmt.Printf("Transaction %d: %v\n", i+1, result.Status)
		if result.Err != nil {
			fmt.Printf("  failed at frame depth %d: %v\n", result.FailedDepth, result.Err)
		}
		if trace {
			printTrace(runner, result)
		}
		printBalances(runner, result)
	}
	fmt.Printf("Final state hash: %x\n", runner.StateHash())
	return nil
}

func printTrace(runner *scenario.Runner, result scenario.Result) {
	for _, event := range result.Trace {
		indent := strings.Repeat("  ", event.Depth)
		entry := event.Entry
		if entry == "" {
			entry = "<transfer>"
		}
		switch event.Kind {
		case vm.EventEnter:
			fmt.Printf("%s> %s -> %s %s value=%s budget=%d\n", indent,
				runner.Label(event.Caller), runner.Label(event.Callee), entry, event.Value, event.Budget)
		case vm.EventExit:
			outcome := "ok"
			if event.Err != nil {
				outcome = event.Err.Error()
			}
			fmt.Printf("%s< %s\n", indent, outcome)
		case vm.EventDenied:
			fmt.Printf("%sx %s -> %s %s budget=%d denied: %v\n", indent,
				runner.Label(event.Caller), runner.Label(event.Callee), entry, event.Budget, event.Err)
		}
	}
}

func printBalances(runner *scenario.Runner, result scenario.Result) {
	addresses := maps.Keys(result.FinalBalances)
	slices.SortFunc(addresses, func(a, b common.Address) int {
		return strings.Compare(runner.Label(a), runner.Label(b))
	})
	for _, addr := range addresses {
		fmt.Printf("  %-12s %d\n", runner.Label(addr), result.FinalBalances[addr])
	}
}

// addMemoryDiagnoses wraps a command action with an optional resource
// usage report.
func addMemoryDiagnoses(action cli.ActionFunc) cli.ActionFunc {
	return func(context *cli.Context) error {
		err := action(context)
		if context.Bool(diagnosticsFlag.Name) {
			fmt.Printf("System memory: %d MiB total, %d MiB free\n",
				memory.TotalMemory()/1024/1024, memory.FreeMemory()/1024/1024)
		}
		return err
	}
}
