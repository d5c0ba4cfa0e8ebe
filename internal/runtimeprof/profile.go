// Package runtimeprof starts file profiles for the command line tools.
package runtimeprof

import (
	"fmt"
	"strings"

	"github.com/pkg/profile"
)

// Kinds lists the accepted -profile values.
var Kinds = []string{"cpu", "mem", "allocs", "block", "mutex", "goroutine", "trace"}

func option(kind string) (func(*profile.Profile), error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "allocs":
		return profile.MemProfileAllocs, nil
	case "block":
		return profile.BlockProfile, nil
	case "mutex":
		return profile.MutexProfile, nil
	case "goroutine":
		return profile.GoroutineProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	default:
		return nil, fmt.Errorf("unknown profile %q (want one of %s)", kind, strings.Join(Kinds, ", "))
	}
}

// Start begins a profile written under dir. An empty kind is a no-op; the
// returned stop func is always safe to call.
func Start(kind, dir string) (stop func(), err error) {
	if strings.TrimSpace(kind) == "" {
		return func() {}, nil
	}
	mode, err := option(kind)
	if err != nil {
		return func() {}, err
	}
	opts := []func(*profile.Profile){mode, profile.NoShutdownHook, profile.Quiet}
	if dir != "" {
		opts = append(opts, profile.ProfilePath(dir))
	}
	p := profile.Start(opts...)
	return p.Stop, nil
}
