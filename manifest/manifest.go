// Package manifest publishes the static capability JSON that describes
// what an SDK build can do, for cross-SDK certification tooling to
// introspect without opening a connection.
package manifest

import "encoding/json"

// RoutingModes enumerates the fan-out strategies a server-side
// dispatcher may support.
type RoutingModes struct {
	Unicast           bool `json:"unicast"`
	Fanout            bool `json:"fanout"`
	BroadcastResponse bool `json:"broadcast-response"`
	FullBroadcast     bool `json:"full-broadcast"`
}

// Capabilities is the capability manifest body.
type Capabilities struct {
	Executables   []string     `json:"executables"`
	HolonRPCServer bool        `json:"holon_rpc_server"`
	GRPCDialWS    bool         `json:"grpc_dial_ws"`
	Routing       RoutingModes `json:"routing"`
}

// Default returns the capability manifest for this SDK build.
func Default() Capabilities {
	return Capabilities{
		Executables:    []string{"holonsctl"},
		HolonRPCServer: true,
		GRPCDialWS:     false,
		Routing: RoutingModes{
			Unicast:           true,
			Fanout:            false,
			BroadcastResponse: false,
			FullBroadcast:     false,
		},
	}
}

// MarshalJSON renders the default capability manifest as indented JSON,
// the form a certification harness reads off stdout.
func MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(Default(), "", "  ")
}
