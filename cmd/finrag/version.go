package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.Version=... -X main.GitCommit=..." at release.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// buildInfo fills unset fields from the module and VCS data the toolchain
// embeds, so `go install` builds report something useful too.
func buildInfo() (version, commit, built string) {
	version, commit, built = Version, GitCommit, BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, orUnknown(commit), orUnknown(built)
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if commit == "" && settings["vcs.revision"] != "" {
		commit = settings["vcs.revision"]
		if settings["vcs.modified"] == "true" {
			commit += "-dirty"
		}
	}
	if built == "" {
		built = settings["vcs.time"]
	}
	return version, orUnknown(commit), orUnknown(built)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, built := buildInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "finrag %s\n", version)
		fmt.Fprintf(out, "  commit:   %s\n", commit)
		fmt.Fprintf(out, "  built:    %s\n", built)
		fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
