package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ablomer/steam-clip-bot/internal/cleanup"
	"github.com/ablomer/steam-clip-bot/internal/config"
	"github.com/ablomer/steam-clip-bot/internal/discord"
	"github.com/ablomer/steam-clip-bot/internal/downloader"
	"github.com/ablomer/steam-clip-bot/internal/logging"
	"github.com/ablomer/steam-clip-bot/internal/queue"
	"github.com/ablomer/steam-clip-bot/internal/server"
	"github.com/ablomer/steam-clip-bot/internal/storage"
)

const configFile = "config/config.yaml"

func main() {
	cfg, err := config.Load(configFile)
	if err != nil {
		logging.Init(false)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.Debug)
	logger := logging.Component("main")

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Str("downloads_dir", cfg.Storage.DownloadsDir).
		Int("port", cfg.Server.Port).
		Msg("configuration loaded")

	store, err := storage.NewStore(cfg.Storage.DownloadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}

	index, err := storage.NewClipIndex(cfg.Storage.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize clip index")
	}
	defer index.Close()

	fetcher, err := downloader.New(store.Dir(), cfg.Download.YtDlpPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize downloader")
	}

	q := queue.NewFIFO()

	bot, err := discord.NewBot(cfg.Discord.Token, cfg.Discord.GuildID, q)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord bot")
	}

	worker := queue.NewWorker(
		q,
		fetcher,
		bot,
		bot,
		store,
		index,
		strings.TrimRight(cfg.BaseURL, "/"),
		time.Duration(cfg.Download.TimeoutMinutes)*time.Minute,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	sweeper := cleanup.NewSweeper(
		store.Dir(),
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour,
	)
	sweeper.Start()
	defer sweeper.Stop()

	if err := bot.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to discord")
	}
	defer bot.Close()

	app := server.New(store, index)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info().Msg("shutting down gracefully")
		cancel()
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	logger.Info().Str("addr", cfg.Addr()).Msg("file server starting")
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	logger.Info().Msg("shutdown complete")
}
