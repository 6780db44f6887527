package main

import (
	"context"
	"log"

	"github.com/sngm3741/survey-manager-api/internal/config"
	"github.com/sngm3741/survey-manager-api/internal/infrastructure"
	"github.com/sngm3741/survey-manager-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	store, closeStore, err := infrastructure.Open(ctx, cfg)
	if err != nil {
		cfg.ServerLog.WithError(err).Fatal("ストアの初期化に失敗しました")
	}
	if cfg.StoreDriver == config.DriverMemory {
		cfg.ServerLog.Warn("in-memory store selected; data is lost on restart")
	}

	app, err := server.New(cfg, store, closeStore)
	if err != nil {
		cfg.ServerLog.WithError(err).Fatal("サーバーの構築に失敗しました")
	}
	if err := app.Run(); err != nil {
		cfg.ServerLog.WithError(err).Fatal("サーバーが異常終了しました")
	}
}
