package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
	"github.com/todoapp/todo-contract-tests/todotests"
)

const serviceStartupTimeout = time.Second * 10

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	config := params.serviceConfig()
	serviceClient := client.NewTodoServiceClient(config, nil)

	fmt.Printf("Waiting for Todo service at %s", config.BaseURL)
	if err := serviceClient.WaitForService(serviceStartupTimeout, os.Stdout); err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "Todo service error: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(" ready")
	fmt.Println()

	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := todotests.RunTestSuite(config, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To rerun only the failed tests:")
		fmt.Printf("  %s\n", rerunCommand(os.Args, results.FailedTestIDs()))
		os.Exit(1)
	}
}

// rerunCommand reconstructs the command line with -run patterns selecting
// exactly the tests that failed.
func rerunCommand(args []string, failed []framework.TestID) string {
	var command commandBuilder
	command.add(args[0])
	skipFlagValue := false
	for _, arg := range args[1:] {
		if skipFlagValue {
			skipFlagValue = false
			continue
		}
		if arg == "-run" || arg == "--run" {
			skipFlagValue = true
			continue
		}
		command.add(arg)
	}
	for _, id := range failed {
		command.add("-run", "^"+regexp.QuoteMeta(id.String())+"$")
	}
	return command.String()
}
