// gpthelper - A Discord chat bot backed by OpenAI completions.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/jeranaias/gpthelper/internal/config"
	"github.com/jeranaias/gpthelper/internal/llm"
	"github.com/jeranaias/gpthelper/internal/platform/discord"
	"github.com/jeranaias/gpthelper/internal/store"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, created, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if created {
		path, _ := config.ConfigPath()
		fmt.Printf("Wrote configuration template to %s\n", path)
		fmt.Println("Please fill in the configuration file and restart the bot.")
		return nil
	}
	if err := cfg.Ready(); err != nil {
		return fmt.Errorf("config not ready: %w", err)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	st, err := store.Open(filepath.Join(dir, "gpthelper.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client := llm.New(cfg.OpenAIKey, cfg.Timeout())
	log.Printf("gpthelper %s (commit %s, built %s), api key %s",
		Version, GitCommit, BuildDate, client.KeyFingerprint())

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	bot := discord.New(dg, cfg, st, client)
	if err := bot.Start(); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	defer bot.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")
	return nil
}
