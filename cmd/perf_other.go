//go:build !linux

package cmd

import "fmt"

func countInstructions(f func() error) (count uint64, err error) {
	if err = f(); err != nil {
		return
	}
	err = fmt.Errorf("instruction counting needs Linux perf events")
	return
}
