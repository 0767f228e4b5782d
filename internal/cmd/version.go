package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cmd.version=v1.2.3"
var version = "dev"

// GetVersion returns the build version
func GetVersion() string {
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "🏷️  Print the client version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString(GetVersion()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString(v string) string {
	base, suffix := parseVersion(v)
	label := "codesandbox " + base
	switch {
	case base == "dev" || base == "":
		label = "codesandbox (development build)"
	case suffix != "":
		label += " (" + strings.TrimPrefix(suffix, "-") + ")"
	}
	return fmt.Sprintf("%s %s/%s %s", label, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// parseVersion splits a version into its numeric base, without a leading v,
// and any pre-release or build suffix
func parseVersion(v string) (base, suffix string) {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		return v[:i], v[i:]
	}
	return v, ""
}
