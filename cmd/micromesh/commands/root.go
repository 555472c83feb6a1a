package commands

import (
	"github.com/spf13/cobra"

	"github.com/micromesh/micromesh/src/config"
)

var _config = config.NewDefaultConfig()

// RootCmd is the root command for micromesh
var RootCmd = &cobra.Command{
	Use:              "micromesh",
	Short:            "micromesh node",
	TraverseChildren: true,
}
