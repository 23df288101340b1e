package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sketchspy/internal/config"
	"sketchspy/internal/game"
	"sketchspy/internal/words"
	"sketchspy/internal/ws"
)

const version = "0.2.0"

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SKETCHSPY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sketchspy",
		Short:         "A collaborative drawing game where one player has no idea what everyone is drawing.",
		Args:          cobra.ExactArgs(0),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	fs := cmd.Flags()

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: SKETCHSPY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: SKETCHSPY_PORT)")
	fs.StringVarP(&cfg.WordFile, "word-file", "w", cfg.WordFile, "newline-delimited word list (env: SKETCHSPY_WORD_FILE)")
	fs.IntVar(&cfg.NumColors, "num-colors", cfg.NumColors, "number of selectable color slots (env: SKETCHSPY_NUM_COLORS)")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "drawing passes before the bluffer wins (env: SKETCHSPY_MAX_ROUNDS)")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout, "server-side turn deadline, 0 to disable (env: SKETCHSPY_TURN_TIMEOUT)")
	fs.StringVar(&cfg.ExportFile, "export-file", cfg.ExportFile, "append finished game results to this file (env: SKETCHSPY_EXPORT_FILE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "display additional output (env: SKETCHSPY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("sketchspy v{{.Version}}\n")

	return cmd
}

func serve(cfg *config.Config) error {
	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	if !cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Socket server + game session
	sock := ws.New()
	sess := game.New(sock, words.NewProvider(cfg.WordFile), game.Options{
		NumColors:   cfg.NumColors,
		MaxRounds:   cfg.MaxRounds,
		TurnTimeout: cfg.TurnTimeout,
		ExportFile:  cfg.ExportFile,
	})
	io := sock.Mount(r, sess)
	defer io.Close()

	zerologlog.Info().Str("addr", cfg.Addr()).Msg("listening")
	return r.Run(cfg.Addr())
}

func main() {
	_ = godotenv.Load()
	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).Execute())
}
