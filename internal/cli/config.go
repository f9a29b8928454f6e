package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/spindle/internal/config"
	"github.com/tessro/spindle/internal/core"
)

var configInitDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing spindle configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configPath())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file. On a terminal a short form asks for
the library folder and playback defaults; otherwise the defaults are written.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the file.

Examples:
  spindle config set library.root ~/Music
  spindle config set playback.repeat all
  spindle config set server.port 9000`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitDefaults, "defaults", false, "write defaults without prompting")

	configCmd.AddCommand(configShowCmd, configPathCmd, configEditCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file not found at %s. Run 'spindle config init' first", path)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	newCfg := config.Default()
	if !configInitDefaults && !JSONOutput() && isTerminal() {
		if err := promptConfig(newCfg); err != nil {
			return err
		}
	}
	if err := newCfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(newCfg, path); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "created", "path": path})
	}
	fmt.Printf("Created config file: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'spindle ui' to start playing")
	fmt.Println("  2. Or run 'spindle serve' and control playback with 'spindle play', 'spindle next', ...")
	return nil
}

// promptConfig asks for the settings most people change.
func promptConfig(c *config.Config) error {
	volume := strconv.Itoa(c.Playback.Volume)
	repeat := c.Playback.Repeat

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Music folder").
				Description("Where the browser starts").
				Value(&c.Library.Root),
			huh.NewConfirm().
				Title("Watch the open folder for changes?").
				Value(&c.Library.Watch),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Starting volume (0-100)").
				Value(&volume).
				Validate(func(s string) error {
					v, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || v < 0 || v > 100 {
						return fmt.Errorf("enter a number between 0 and 100")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Shuffle by default?").
				Value(&c.Playback.Shuffle),
			huh.NewSelect[string]().
				Title("Repeat mode").
				Options(
					huh.NewOption("Off", core.RepeatOff.String()),
					huh.NewOption("Whole playlist", core.RepeatAll.String()),
					huh.NewOption("Current track", core.RepeatOne.String()),
				).
				Value(&repeat),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	c.Playback.Volume, _ = strconv.Atoi(strings.TrimSpace(volume))
	c.Playback.Repeat = repeat
	c.Library.Root = strings.TrimSpace(c.Library.Root)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	path := configPath()

	fileCfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("%w. Run 'spindle config init' first", err)
	}
	if err := fileCfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(fileCfg, path); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"key": key, "value": value, "path": path})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
