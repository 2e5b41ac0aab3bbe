package main

import (
	"log"

	"github.com/joho/godotenv"

	"aibot/bot"
	corecmd "aibot/core/cmd"
)

func main() {
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(cfg.(*bot.Config))
		},
	})
	if err != nil {
		log.Fatalf("bot exited: %v", err)
	}
}
