package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lifetales/lifetales/internal/profile"
	"github.com/lifetales/lifetales/server"
	"github.com/lifetales/lifetales/store"
	"github.com/lifetales/lifetales/store/db"
)

const version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "lifetales",
	Short: "A personal memoir service with a conversational memory assistant",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile := &profile.Profile{
			Mode:               viper.GetString("mode"),
			Addr:               viper.GetString("addr"),
			Port:               viper.GetInt("port"),
			Data:               viper.GetString("data"),
			Driver:             viper.GetString("driver"),
			DSN:                viper.GetString("dsn"),
			Version:            version,
			AIEnabled:          viper.GetBool("ai-enabled"),
			AIAPIKey:           viper.GetString("ai-api-key"),
			AIBaseURL:          viper.GetString("ai-base-url"),
			AIModel:            viper.GetString("ai-model"),
			AIMaxTokens:        viper.GetInt("ai-max-tokens"),
			AITemperature:      float32(viper.GetFloat64("ai-temperature")),
			TranscribeEnabled:  viper.GetBool("transcribe-enabled"),
			TranscribeModel:    viper.GetString("transcribe-model"),
			TranscribeLanguage: viper.GetString("transcribe-language"),
		}
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}

		initLogger(instanceProfile)

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}
		storeInstance := store.New(dbDriver, instanceProfile)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			s.Shutdown(ctx)
			cancel()
		}()

		return s.Start(ctx)
	},
}

func initLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server: "prod", "dev", or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "binding port of the server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver: "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetDefault("ai-base-url", "https://api.openai.com/v1")
	viper.SetDefault("ai-model", "gpt-4o-mini")
	viper.SetDefault("transcribe-model", "whisper-1")
	viper.SetEnvPrefix("lifetales")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
