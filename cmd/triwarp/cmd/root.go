package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/esimov/triwarp/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app holds the state shared by the commands of one root command instance.
type app struct {
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the triwarp command tree. Each call gets its own
// configuration state, so tests can execute commands repeatedly.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoaderWithViper(viper.New())}

	rootCmd := &cobra.Command{
		Use:   "triwarp",
		Short: "Warp images by dragging the vertices of a triangle mesh",
		Long: `Warp images through a grid of control points.

Every grid cell is split into two triangles and each triangle of the source
image is drawn onto its displaced counterpart through an affine transform.
Control points are moved with scripted pointer events.

Examples:
  triwarp render input.jpg -o output.png
  triwarp render input.jpg -o output.png --script drag.yaml --cols 4 --rows 4
  triwarp render https://example.com/photo.png -o out.png --wireframe 1 --handles`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME/.config/triwarp, /etc/triwarp)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	v := a.loader.GetViper()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(newRenderCommand(a))
	return rootCmd
}

// setup loads the configuration and installs the structured logger.
func (a *app) setup(logOut io.Writer) error {
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	a.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(a.logger)
	return nil
}
