package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"github.com/dashwav/yinbot/bot"
	"github.com/dashwav/yinbot/database"
	"github.com/dashwav/yinbot/kvstore"
	"github.com/dashwav/yinbot/owo"
)

type Config struct {
	Token            string `json:"token"`
	ConnectionString string `json:"connection_string"`
	Schema           string `json:"schema"`
	OwoAPIKey        string `json:"owo_api_key"`
}

func main() {
	d, err := os.ReadFile("./config.json")
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var config *Config
	if err := json.Unmarshal(d, &config); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	z, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer z.Sync()

	db, err := database.NewPSQLDatabase(&database.Config{
		Log:     z.Named("database"),
		ConnStr: config.ConnectionString,
		Schema:  config.Schema,
	})
	if err != nil {
		z.Fatal("failed to set up database", zap.Error(err))
	}
	defer db.Close()

	store, err := kvstore.NewStore(z.Named("kvstore"), "./data")
	if err != nil {
		z.Fatal("failed to set up kvstore", zap.Error(err))
	}
	defer store.Close()

	var owoClient *owo.Client
	if config.OwoAPIKey != "" {
		owoClient = owo.NewClient(config.OwoAPIKey)
	}

	b, err := bot.NewBot(&bot.Config{
		DB:    db,
		Store: store,
		Log:   z.Named("bot"),
		Owo:   owoClient,
		Token: config.Token,
	})
	if err != nil {
		z.Fatal("failed to set up bot", zap.Error(err))
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Run(ctx); err != nil {
		z.Fatal("failed to run bot", zap.Error(err))
	}

	// block until ctrl-c
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
}
