// Package launch reads the environment variables a cross-SDK
// certification launcher uses to locate this SDK's build tooling. It
// does not itself launch anything — that harness lives outside this
// module.
package launch

import (
	"os"
	"strings"
)

// DefaultGoCache is used when GOCACHE is unset or blank.
const DefaultGoCache = "/tmp/go-cache"

// Env is the launcher-relevant environment snapshot.
type Env struct {
	// GoBin is the trimmed GO_BIN value, or "" if unset.
	GoBin string
	// GoCache is GOCACHE, or DefaultGoCache if unset or blank.
	GoCache string
}

// ReadEnv reads GO_BIN and GOCACHE from the process environment.
func ReadEnv() Env {
	goBin := strings.TrimSpace(os.Getenv("GO_BIN"))
	goCache := strings.TrimSpace(os.Getenv("GOCACHE"))
	if goCache == "" {
		goCache = DefaultGoCache
	}
	return Env{GoBin: goBin, GoCache: goCache}
}
