package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/library"
	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/metadata"
)

var scanDepth int

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the audio files below a directory",
	Long: `Walk a directory tree and read the tags of every audio file found.
Without an argument the configured library root is scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanDepth, "depth", 0, "directory levels to read, 1 = only dir (0 = unlimited)")
	rootCmd.AddCommand(scanCmd)
}

type scanResult struct {
	Root     string        `json:"root"`
	Tracks   []core.Track  `json:"tracks"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

func runScan(cmd *cobra.Command, args []string) error {
	root := cfg.Library.Root
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	files, err := library.Scan(ctx, root, library.ScanOptions{
		ShowHidden: cfg.Library.ShowHidden,
		MaxDepth:   scanDepth,
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	var bar *progressbar.ProgressBar
	if !JSONOutput() && isTerminal() {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Reading tags"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	extractor := metadata.NewExtractor(logging.Component(logger, "metadata"))
	tracks := make([]core.Track, len(files))
	workers := cfg.Library.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tracks[i] = extractor.Extract(path)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	result := scanResult{
		Root:     root,
		Tracks:   tracks,
		Duration: lo.SumBy(tracks, func(t core.Track) time.Duration { return t.Duration }),
		Bytes: lo.SumBy(files, func(path string) int64 {
			if info, err := os.Stat(path); err == nil {
				return info.Size()
			}
			return 0
		}),
	}

	if JSONOutput() {
		return printJSON(result)
	}

	if len(tracks) == 0 {
		fmt.Printf("No audio files found in %s\n", root)
		return nil
	}

	t := NewTable(os.Stdout, "Title", "Artist", "Album", "Time", "Path")
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	for _, track := range tracks {
		rel, err := filepath.Rel(root, track.Path)
		if err != nil {
			rel = track.Path
		}
		t.AppendRow(table.Row{
			TruncateString(track.Title, 40),
			TruncateString(track.Artist, 25),
			TruncateString(track.Album, 25),
			track.DisplayDuration(),
			rel,
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tracks", len(tracks)),
		fmt.Sprintf("%d artists", len(lo.Uniq(lo.Map(tracks, func(t core.Track, _ int) string { return t.Artist })))),
		humanize.Bytes(uint64(result.Bytes)),
		core.FormatDuration(result.Duration),
		"",
	})
	t.Render()
	return nil
}
