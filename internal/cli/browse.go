package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/remote"
	"github.com/tessro/spindle/internal/session"
)

type moveFunc func(c *remote.Client, ctx context.Context) (session.Listing, error)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ls"},
	Short:   "List the player's current directory",
	Long: `Show the directory the player is browsing. The subcommands move through
the directory history the same way the browser panel does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, (*remote.Client).Listing)
	},
}

var browseCdCmd = &cobra.Command{
	Use:   "cd <path>",
	Short: "Enter a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		return runMove(cmd, func(c *remote.Client, ctx context.Context) (session.Listing, error) {
			return c.Navigate(ctx, path)
		})
	},
}

var browseBackCmd = &cobra.Command{
	Use:   "back",
	Short: "Go back in directory history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, (*remote.Client).Back)
	},
}

var browseForwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Go forward in directory history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, (*remote.Client).Forward)
	},
}

var browseUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Enter the parent directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, (*remote.Client).Up)
	},
}

func init() {
	browseCmd.AddCommand(browseCdCmd, browseBackCmd, browseForwardCmd, browseUpCmd)
	rootCmd.AddCommand(browseCmd)
}

func runMove(cmd *cobra.Command, fn moveFunc) error {
	listing, err := fn(newClient(), cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(listing)
	}
	printListing(listing)
	return nil
}

func printListing(l session.Listing) {
	fmt.Printf("📁 %s\n", l.Path)
	if len(l.Entries) == 0 {
		fmt.Println("  (empty)")
		return
	}

	t := NewTable(os.Stdout, "Name", "Size", "Modified")
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, e := range l.Entries {
		name, size := e.Name, humanize.Bytes(uint64(max(e.Size, 0)))
		switch {
		case e.IsDir:
			name, size = name+"/", ""
		case e.IsAudio:
			name = "♪ " + name
		}
		t.AppendRow(table.Row{name, size, humanize.Time(e.ModTime)})
	}
	t.Render()

	var nav []string
	if l.CanBack {
		nav = append(nav, "back")
	}
	if l.CanForward {
		nav = append(nav, "forward")
	}
	if l.CanUp {
		nav = append(nav, "up")
	}
	if Verbose() && len(nav) > 0 {
		fmt.Printf("\nAvailable: %v\n", nav)
	}
}
