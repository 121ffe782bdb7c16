package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/energle/pkg/mcpquic"
)

// cmdCall invokes one MCP tool over QUIC: energle call [-addr host:port] tool key=value...
func cmdCall(args []string) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8420", "chassis address")
	verify := fs.Bool("verify", false, "verify the server certificate")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: energle call [-addr host:port] <tool> [key=value ...]")
		os.Exit(1)
	}
	toolArgs, err := parseToolArgs(fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := mcpquic.NewClient(*addr, mcpquic.ClientTLSConfig(!*verify))
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	var out json.RawMessage
	if err := c.CallJSON(ctx, fs.Arg(0), toolArgs, &out); err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}
	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
}

// parseToolArgs turns key=value pairs into tool arguments. Values stay
// strings; the tools coerce numbers and booleans.
func parseToolArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
