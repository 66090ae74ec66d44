package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
)

type commandParams struct {
	serviceURL string
	wsURL      string
	user       string
	password   string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.serviceURL, "url", "", "base URL of the Todo service")
	fs.StringVar(&c.wsURL, "ws-url", "", "websocket notification URL (default: derived from -url)")
	fs.StringVar(&c.user, "user", "admin", "username for authenticated operations")
	fs.StringVar(&c.password, "password", "admin", "password for authenticated operations")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.serviceURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	if c.wsURL == "" {
		c.wsURL = deriveWebsocketURL(c.serviceURL)
	}
	return true
}

func (c *commandParams) serviceConfig() client.ServiceConfig {
	return client.ServiceConfig{
		BaseURL:  strings.TrimSuffix(c.serviceURL, "/"),
		WSURL:    c.wsURL,
		User:     c.user,
		Password: c.password,
	}
}

// deriveWebsocketURL maps an HTTP base URL to the conventional notification
// endpoint on the same host, e.g. http://localhost:8080 -> ws://localhost:8080/ws.
func deriveWebsocketURL(baseURL string) string {
	url := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(url, "https:"):
		url = "wss:" + strings.TrimPrefix(url, "https:")
	case strings.HasPrefix(url, "http:"):
		url = "ws:" + strings.TrimPrefix(url, "http:")
	}
	return url + "/ws"
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
