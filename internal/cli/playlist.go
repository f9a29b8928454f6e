package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var addRecursive bool

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"pl", "queue"},
	Short:   "Show and edit the playlist",
	RunE:    runPlaylistList,
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add files or directories to the playlist",
	Long: `Append audio files to the playlist. A directory adds the audio files
directly inside it, or every audio file below it with --recursive.

Examples:
  spindle playlist add song.mp3
  spindle playlist add -r ~/Music/Albums/Abbey\ Road`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlaylistAdd,
}

var playlistRemoveCmd = &cobra.Command{
	Use:     "remove <number>",
	Aliases: []string{"rm"},
	Short:   "Remove an entry from the playlist",
	Args:    cobra.ExactArgs(1),
	RunE:    runPlaylistRemove,
}

var playlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry and stop playback",
	RunE:  runPlaylistClear,
}

func init() {
	playlistAddCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "include subdirectories")

	playlistCmd.AddCommand(playlistAddCmd, playlistRemoveCmd, playlistClearCmd)
	rootCmd.AddCommand(playlistCmd)
}

func runPlaylistList(cmd *cobra.Command, args []string) error {
	view, err := newClient().Playlist(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(view)
	}

	if len(view.Tracks) == 0 {
		fmt.Println("Playlist is empty")
		return nil
	}

	t := NewTable(os.Stdout, "", "#", "Title", "Artist", "Album", "Time")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for i, track := range view.Tracks {
		marker := ""
		if i == view.Current {
			marker = "▶"
		}
		t.AppendRow(table.Row{
			marker,
			i + 1,
			TruncateString(track.Title, 40),
			TruncateString(track.Artist, 25),
			TruncateString(track.Album, 25),
			track.DisplayDuration(),
		})
	}
	t.Render()
	return nil
}

func runPlaylistAdd(cmd *cobra.Command, args []string) error {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", arg, err)
		}
		paths = append(paths, abs)
	}

	resp, err := newClient().Add(cmd.Context(), paths, addRecursive)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(resp)
	}

	switch resp.Added {
	case 0:
		fmt.Println("Nothing added")
	case 1:
		fmt.Printf("➕ Added: %s\n", resp.Tracks[0].NowPlaying())
	default:
		fmt.Printf("➕ Added %d tracks\n", resp.Added)
	}
	for _, msg := range resp.Errors {
		fmt.Fprintf(os.Stderr, "  ✗ %s\n", msg)
	}
	return nil
}

func runPlaylistRemove(cmd *cobra.Command, args []string) error {
	index, err := parseIndexArg(args[0])
	if err != nil {
		return err
	}

	state, err := newClient().Remove(cmd.Context(), index)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(state)
	}
	fmt.Printf("➖ Removed track %d\n", index+1)
	return nil
}

func runPlaylistClear(cmd *cobra.Command, args []string) error {
	state, err := newClient().Clear(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(state)
	}
	fmt.Println("Playlist cleared")
	return nil
}
