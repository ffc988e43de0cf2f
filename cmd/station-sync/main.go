package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stationprofiles/station-sync/cmd/station-sync/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
