package main

import (
	"fmt"
	"os"

	"treasury_dashboard/internal/config"
)

func main() {
	c := &cli{out: os.Stdout, loadConfig: config.Resolve}
	err := newRootCmdWith(c).Execute()
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "treasuryctl:", err)
		os.Exit(1)
	}
}
