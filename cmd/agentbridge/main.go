// AgentBridge server entry point.
//
// Usage:
//
//	agentbridge serve                        # start the bridge
//	agentbridge serve --config config.yaml   # with a config file
//	agentbridge probe --protocol a2a --url http://localhost:9000
//	agentbridge version                      # show version information
//	agentbridge health                       # check a running bridge
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/discovery"
	"github.com/BaSui01/agentbridge/internal/telemetry"
	"github.com/BaSui01/agentbridge/internal/tlsutil"
	"github.com/BaSui01/agentbridge/types"
)

// Version metadata, injected at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "probe":
		runProbe(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting AgentBridge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv := NewServer(cfg, logger, otelProviders)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
	if *configPath != "" {
		if err := srv.WatchConfig(*configPath); err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	srv.WaitForShutdown()
	logger.Info("AgentBridge stopped")
}

// runProbe discovers one endpoint and prints the normalized agent record.
// Handy for checking what the bridge would register before adding a seed.
func runProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	protoFlag := fs.String("protocol", "", "Protocol to speak: acp, a2a, mcp, custom")
	urlFlag := fs.String("url", "", "Base URL of the agent endpoint")
	timeout := fs.Duration("timeout", 10*time.Second, "Probe timeout")
	fs.Parse(args)

	protocol, err := types.ParseProtocol(*protoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --protocol: %v\n", err)
		os.Exit(1)
	}
	if *urlFlag == "" {
		fmt.Fprintln(os.Stderr, "Missing --url")
		os.Exit(1)
	}

	adapters := discovery.NewAdapterSet(tlsutil.SecureHTTPClient(*timeout), zap.NewNop())
	adapter, err := adapters.ForProtocol(protocol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	seed := discovery.Seed{
		ID:       fmt.Sprintf("%s-probe", protocol),
		Protocol: protocol,
		URL:      *urlFlag,
	}
	agent, err := adapter.Probe(ctx, seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("AgentBridge %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`AgentBridge - multi-protocol agent gateway

Usage:
  agentbridge <command> [options]

Commands:
  serve     Start the bridge server
  probe     Probe one agent endpoint and print the discovered record
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Options for 'probe':
  --protocol <p>    Protocol to speak: acp, a2a, mcp, custom
  --url <url>       Base URL of the agent endpoint
  --timeout <d>     Probe timeout (default 10s)

Examples:
  agentbridge serve
  agentbridge serve --config /etc/agentbridge/config.yaml
  agentbridge probe --protocol mcp --url http://localhost:9000
  agentbridge health --addr http://localhost:8080
  agentbridge version`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
