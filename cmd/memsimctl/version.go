package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := readVersion()
		fmt.Printf("memsimctl %s\n", info.Version)
		fmt.Printf("  commit: %s\n", info.Commit)
		fmt.Printf("  built: %s\n", info.Date)
		if info.Go != "" {
			fmt.Printf("  go: %s\n", info.Go)
		}
		if info.Simulator != "" {
			fmt.Printf("  simulator: %s\n", info.Simulator)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

const simulatorModule = "github.com/joshuapare/memsim"

type versionInfo struct {
	Version   string
	Commit    string
	Date      string
	Go        string
	Simulator string // version of the simulator module linked in
}

// readVersion merges the linker-stamped values with the binary's build info.
// Stamped values win; build info fills what was left at its default.
func readVersion() versionInfo {
	v := versionInfo{Version: version, Commit: commit, Date: date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	return mergeBuildInfo(v, bi)
}

func mergeBuildInfo(v versionInfo, bi *debug.BuildInfo) versionInfo {
	v.Go = bi.GoVersion
	if v.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != simulatorModule {
			continue
		}
		v.Simulator = dep.Version
		if dep.Replace != nil {
			v.Simulator = dep.Replace.Path
			if dep.Replace.Version != "" {
				v.Simulator += " " + dep.Replace.Version
			}
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "none" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.Date == "unknown" {
				v.Date = s.Value
			}
		}
	}
	return v
}
