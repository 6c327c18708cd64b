// Package cmdflags parses the --listen/--port flag surface shared by
// Holon-RPC command-line entry points into a single listen URI.
package cmdflags

import (
	"flag"
	"fmt"
)

// DefaultListen is used when neither --listen nor --port is supplied.
const DefaultListen = "tcp://:9090"

// Options is the parsed result of the --listen/--port surface.
type Options struct {
	// Listen is the fully-resolved listen URI, ready for
	// transport.ListenRuntime.
	Listen string
}

// Parse parses args (conventionally os.Args[1:]) into Options. --listen
// takes a full URI and wins if both are given; --port overrides only
// the port of the tcp:// default.
func Parse(args []string) (Options, error) {
	fs := flag.NewFlagSet("holonsctl", flag.ContinueOnError)
	listen := fs.String("listen", "", "listen URI, e.g. tcp://0.0.0.0:9090")
	port := fs.Int("port", 0, "TCP port to listen on, shorthand for --listen tcp://:PORT")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	if *listen != "" {
		return Options{Listen: *listen}, nil
	}
	if *port != 0 {
		return Options{Listen: fmt.Sprintf("tcp://:%d", *port)}, nil
	}
	return Options{Listen: DefaultListen}, nil
}
