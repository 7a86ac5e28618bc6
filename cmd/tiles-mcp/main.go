package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/detection-tiles-mcp/internal/config"
	"github.com/ironsheep/detection-tiles-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagWriteConfig = "write-config"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("detection-tiles-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	}

	app := &cli.App{
		Name:    "detection-tiles-mcp",
		Usage:   "MCP server mapping object detections onto a 4x4 challenge grid",
		Version: Version,
		Description: "This server communicates via MCP protocol over stdin/stdout.\n" +
			"Configure it in your MCP client. Logs are written to stderr.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"TILES_MCP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "debug, info, warn or error; overrides the config file",
				EnvVars: []string{"TILES_MCP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  flagWriteConfig,
				Usage: "Write the effective configuration to `FILE` and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "detection-tiles-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}
	if lvl := c.String(flagLogLevel); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if path := c.String(flagWriteConfig); path != "" {
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote configuration to %s\n", path)
		return nil
	}

	logger, err := newLogger(cfg.Level())
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sugar := logger.Sugar()
	sugar.Infow("starting detection-tiles-mcp",
		"version", Version, "built", BuildTime, "commit", GitCommit, "config", c.String(flagConfig))

	server.Version = Version
	srv, err := server.New(cfg, sugar)
	if err != nil {
		return err
	}
	return srv.Run()
}

// newLogger builds a console logger on stderr; stdout carries the protocol.
func newLogger(level zapcore.Level) (*zap.Logger, error) {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
}
