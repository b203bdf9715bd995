package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/dash33/internal/backup"
	"github.com/kelsos/dash33/internal/client"
	"github.com/kelsos/dash33/internal/config"
	"github.com/kelsos/dash33/internal/dashboard"
	"github.com/kelsos/dash33/internal/logger"
	"github.com/kelsos/dash33/internal/models"
	"github.com/kelsos/dash33/internal/services"
	"github.com/kelsos/dash33/internal/storage"
	"github.com/kelsos/dash33/internal/tui"
	"github.com/kelsos/dash33/internal/utils"
)

func main() {
	logger.Init()
	utils.LoadEnvironment()
	// DEBUG may come from .env
	logger.SetLevelFromEnvironment()

	var (
		configPath string
		baseURL    string
		apiVersion string
		timeout    int
		dataDir    string
		wait       bool
		walletType string
		save       bool
		backupDir  string
	)

	loadConfig := func(cmd *cobra.Command) *config.Config {
		cfg := config.NewConfig()
		if configPath != "" {
			if err := cfg.LoadFromFile(configPath); err != nil {
				logger.Fatal("Failed to load config: %v", err)
			}
		}
		cfg.LoadFromEnvironment()

		flags := cmd.Flags()
		if flags.Changed("base-url") {
			cfg.BaseURL = baseURL
		}
		if flags.Changed("api-version") {
			cfg.APIVersion = config.APIVersion(strings.ToLower(apiVersion))
		}
		if flags.Changed("timeout") {
			cfg.Timeout = time.Duration(timeout) * time.Millisecond
		}
		if flags.Changed("data-dir") {
			cfg.DataDir = dataDir
		}

		if err := cfg.Validate(); err != nil {
			logger.Fatal("Invalid configuration: %v", err)
		}
		return cfg
	}

	newGateway := func(ctx context.Context, cfg *config.Config) services.Gateway {
		gateway, err := services.NewGateway(cfg)
		if err != nil {
			logger.Fatal("Failed to create wallet gateway: %v", err)
		}

		if wait && !client.NewAPIClient(cfg).WaitForAPIReady(ctx, gateway.ReadinessEndpoint()) {
			logger.Fatal("Wallet service at %s is not ready", cfg.BaseURL)
		}
		return gateway
	}

	resolveDataDir := func(cfg *config.Config) string {
		dir, err := cfg.ResolveDataDir()
		if err != nil {
			logger.Fatal("Failed to resolve data directory: %v", err)
		}
		return dir
	}

	connectionRequest := func(walletID string) models.ConnectionRequest {
		return models.ConnectionRequest{
			WalletID:   walletID,
			WalletType: models.WalletType(walletType),
		}
	}

	rootCmd := &cobra.Command{
		Use:   "dash33",
		Short: "A CLI dashboard for bitcoin, lightning and web5 wallets",
		Long:  `dash33 connects a wallet to the dash33 wallet service and shows its balance, transactions and analysis.`,
	}

	connectCmd := &cobra.Command{
		Use:   "connect <wallet-id>",
		Short: "Connect a wallet and load its dashboard",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			cfg := loadConfig(cmd)
			controller := dashboard.NewController(newGateway(ctx, cfg))

			state := controller.Connect(ctx, connectionRequest(args[0]))
			printSnapshot(state.Snapshot)

			if save && state.Snapshot != nil {
				if err := storage.SaveSnapshot(resolveDataDir(cfg), state.Snapshot); err != nil {
					logger.Error("Failed to save snapshot: %v", err)
				} else {
					logger.Info("Snapshot saved for wallet %s", state.Snapshot.WalletID)
				}
			}

			exitOnError(state)
		},
	}
	connectCmd.Flags().BoolVarP(&save, "save", "s", false, "Export the fetched snapshot to the data directory")

	refreshCmd := &cobra.Command{
		Use:   "refresh <wallet-id>",
		Short: "Connect a wallet and reload its dashboard",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			controller := dashboard.NewController(newGateway(ctx, loadConfig(cmd)))

			state := controller.Connect(ctx, connectionRequest(args[0]))
			if state.Connected {
				state = controller.Refresh(ctx, args[0])
			}
			printSnapshot(state.Snapshot)
			exitOnError(state)
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <wallet-id>",
		Short: "Show the analysis of a wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			controller := dashboard.NewController(newGateway(ctx, loadConfig(cmd)))

			state := controller.Connect(ctx, connectionRequest(args[0]))
			if state.Snapshot != nil {
				printAnalysis(state.Snapshot.Analysis)
			}
			exitOnError(state)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the wallet service status",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			status, err := newGateway(ctx, loadConfig(cmd)).Status(ctx)
			if err != nil {
				logger.Error("Failed to get service status: %v", err)
				os.Exit(1)
			}
			printStatus(status)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <wallet-id>",
		Short: "Show the last exported snapshot of a wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			snapshot, err := storage.LoadSnapshot(resolveDataDir(loadConfig(cmd)), args[0])
			if err != nil {
				logger.Fatal("Failed to load snapshot: %v", err)
			}
			if snapshot == nil {
				logger.Error("No saved snapshot for wallet %s", args[0])
				os.Exit(1)
			}
			printSnapshot(snapshot)
		},
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor <wallet-id>",
		Short: "Open the interactive wallet dashboard",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			cfg := loadConfig(cmd)
			gateway := newGateway(ctx, cfg)

			logFile, err := logger.InitFileOnly()
			if err != nil {
				logger.Fatal("Failed to initialize file logging: %v", err)
			}
			defer logger.Close()
			logger.Info("Monitor logging to %s", logFile)

			monitor := tui.NewDashboardMonitor(dashboard.NewController(gateway), connectionRequest(args[0]))
			if err := monitor.Start(ctx); err != nil {
				logger.Fatal("Failed to start monitor: %v", err)
			}
			if err := monitor.Run(ctx); err != nil {
				logger.Fatal("Monitor failed: %v", err)
			}
		},
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the exported snapshots",
		Long:  `Create a zip archive of every snapshot exported with 'connect --save'.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			backupFile, err := backup.CreateBackup(resolveDataDir(loadConfig(cmd)), backupDir)
			if err != nil {
				logger.Fatal("Failed to create backup: %v", err)
			}
			logger.Info("Backup created successfully: %s", backupFile)
		},
	}
	backupCmd.Flags().StringVarP(&backupDir, "backup-dir", "", "", "Directory where the backup will be stored (default: <data-dir>/backups)")

	// Add flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&baseURL, "base-url", "u", "", "Base URL of the wallet service")
	rootCmd.PersistentFlags().StringVarP(&apiVersion, "api-version", "", "", "API contract to speak: v1 or legacy")
	rootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 30000, "Request timeout in milliseconds, 0 disables it")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "", "", "Directory for exported snapshots (default: ~/.dash33)")
	rootCmd.PersistentFlags().BoolVarP(&wait, "wait", "w", false, "Wait for the wallet service to become ready")
	rootCmd.PersistentFlags().StringVarP(&walletType, "type", "", string(models.WalletTypeBitcoin), "Wallet type: bitcoin, lightning or web5")

	// Add subcommands
	rootCmd.AddCommand(connectCmd, refreshCmd, analyzeCmd, statusCmd, showCmd, monitorCmd, backupCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}

func exitOnError(state models.SessionState) {
	if state.HasError() {
		logger.Error("%s", state.Error)
		os.Exit(1)
	}
}
