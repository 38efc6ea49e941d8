//go:build linux

package cmd

import (
	perf "github.com/hodgesds/perf-utils"
)

// countInstructions runs f under a hardware instruction counter
func countInstructions(f func() error) (count uint64, err error) {
	var pv *perf.ProfileValue
	if pv, err = perf.CPUInstructions(f); err != nil {
		return
	}
	count = pv.Value
	return
}
