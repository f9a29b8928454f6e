package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/audio"
	"github.com/tessro/spindle/internal/engine"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Audio     bool     `json:"audio_output"`
	Playable  []string `json:"playable_formats"`
	Listed    []string `json:"listed_formats"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Audio:     engine.AudioAvailable,
		Playable: lo.Filter(audio.Extensions, func(ext string, _ int) bool {
			return audio.CanDecode("x" + ext)
		}),
		Listed: audio.Extensions,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentBuild()
		if JSONOutput() {
			return printJSON(info)
		}

		fmt.Printf("spindle %s\n", info.Version)
		if !info.Audio {
			fmt.Println("  audio output disabled (built without cgo)")
		}
		if Verbose() {
			fmt.Printf("  commit:     %s\n", info.Commit)
			fmt.Printf("  built:      %s\n", info.BuildDate)
			fmt.Printf("  go version: %s\n", info.GoVersion)
			fmt.Printf("  platform:   %s\n", info.Platform)
			fmt.Printf("  plays:      %s\n", strings.Join(info.Playable, " "))
			fmt.Printf("  lists:      %s\n", strings.Join(info.Listed, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
