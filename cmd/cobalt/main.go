package main

import (
	"github.com/Flamefire/cobalt/internal/cli"
	"github.com/Flamefire/cobalt/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
