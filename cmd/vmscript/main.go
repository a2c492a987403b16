package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/runbook"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	vmName := flag.String("vm", "", "target virtual machine name")
	inline := flag.String("inline", "", "inline script content")
	file := flag.String("file", "", "name of a script already staged in the container")
	scriptArgs := flag.String("args", "", "arguments passed to the script")
	container := flag.String("container", "", "storage container name")
	wait := flag.Bool("wait", false, "wait for the script to complete")
	interval := flag.Int("interval", 0, "poll interval in seconds")
	timeout := flag.Int("timeout", 0, "total poll budget in seconds")
	configPath := flag.String("config", "", "TOML config file path")
	resume := flag.Bool("resume", false, "resume a suspended completion poll for -vm")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "vmscript").Logger().
		Level(level)

	logger.Debug().Str("version", version).Str("commit", commit).Msg("starting")

	cfg := runbook.ConfigFromEnv()
	if *configPath != "" {
		cfg, err = runbook.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load config")
		}
	}
	if *container != "" {
		cfg.Container = *container
	}
	if *interval > 0 {
		cfg.PollIntervalSec = *interval
	}
	if *timeout > 0 {
		cfg.TimeoutSec = *timeout
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if *vmName == "" {
		logger.Fatal().Msg("-vm is required")
	}

	ctx := context.Background()

	clients, err := runbook.NewClients(cfg.SubscriptionID, cfg.EndpointURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Azure clients")
	}
	blobs, err := runbook.NewAzureBlobStore(ctx, clients, cfg.ResourceGroup, cfg.StorageAccount, cfg.BlobEndpointURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create blob store")
	}
	compute := runbook.NewAzureCompute(clients, cfg.ResourceGroup, cfg.Location)
	auth := runbook.NewAzureAuthenticator(clients.Credential)
	checkpoints := runbook.NewCheckpointStore(cfg.CheckpointPath)

	rb := runbook.New(blobs, compute, auth, checkpoints, cfg.ScratchDir, logger)

	var result string
	if *resume {
		result, err = rb.Resume(ctx, *vmName)
	} else {
		result, err = rb.Run(ctx, runbook.Request{
			VMName:    *vmName,
			Source:    api.ScriptSource{Inline: *inline, FileName: *file},
			Arguments: *scriptArgs,
			Container: cfg.Container,
			Wait:      *wait,
			Interval:  cfg.Interval(),
			Timeout:   cfg.Timeout(),
		})
	}

	if err != nil {
		var execErr *api.ExecutionError
		var timeoutErr *api.PollTimeoutError
		switch {
		case errors.As(err, &execErr):
			// Partial results: captured stdout is still printed below.
			logger.Warn().Str("stderr", execErr.Stderr).Msg("script completed with errors")
		case errors.As(err, &timeoutErr):
			logger.Warn().Int("attempts", timeoutErr.Attempts).Msg("timed out waiting for script completion")
		default:
			logger.Fatal().Err(err).Msg("runbook failed")
		}
	}

	if result != "" {
		fmt.Println(result)
	}
	if err != nil {
		os.Exit(1)
	}
}
