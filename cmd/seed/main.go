package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/survey-manager-api/internal/auth"
	"github.com/sngm3741/survey-manager-api/internal/config"
	"github.com/sngm3741/survey-manager-api/internal/infrastructure"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
)

type seedOptions struct {
	envDir      string
	envName     string
	authorCount int
	surveyCount int
	printTokens bool
	randomSeed  int64
}

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envDir, opts.envName); err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	logger := cfg.ServerLog

	if cfg.StoreDriver == config.DriverMemory {
		logger.Fatal("memory ドライバには投入できません。STORE_DRIVER を mongo か mysql にしてください")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, closeStore, err := infrastructure.Open(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("ストアの初期化に失敗しました")
	}
	if closeStore != nil {
		defer func() {
			_ = closeStore(context.Background())
		}()
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	authors := generateAuthors(rng, opts.authorCount)
	commands := application.NewCommandDispatcher(store, nil)

	created := 0
	for _, cmd := range generateSurveys(rng, authors, opts.surveyCount) {
		if _, err := commands.Dispatch(ctx, cmd); err != nil {
			logger.WithError(err).WithField("author", cmd.Author).Fatal("アンケートの投入に失敗しました")
		}
		created++
	}

	logger.WithFields(logrus.Fields{
		"driver":  cfg.StoreDriver,
		"authors": len(authors),
		"surveys": created,
		"seed":    opts.randomSeed,
	}).Info("Seed 完了")

	if opts.printTokens {
		if err := printTokens(cfg, authors); err != nil {
			logger.WithError(err).Fatal("トークンの発行に失敗しました")
		}
	}
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envDir, "env-dir", "env", "env ファイルを置くディレクトリ")
	flag.StringVar(&opts.envName, "env", "", "env ディレクトリ内の env ファイル名 (例: local, staging)。空なら .env と環境変数のみ")
	flag.IntVar(&opts.authorCount, "authors", 5, "生成する作成者数")
	flag.IntVar(&opts.surveyCount, "surveys", 50, "生成するアンケート総数")
	flag.BoolVar(&opts.printTokens, "tokens", false, "作成者ごとのトークンを標準出力に書き出す")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.Parse()

	if opts.authorCount <= 0 {
		log.Fatal("authors は 1 以上を指定してください")
	}
	if opts.surveyCount < opts.authorCount {
		opts.surveyCount = opts.authorCount
	}
	return opts
}

// loadEnvFiles は shared.env と <envName>.env を読み込む。既に設定済みの環境変数は上書きしない。
func loadEnvFiles(dir, envName string) error {
	if envName == "" {
		return nil
	}
	files := []string{filepath.Join(dir, fmt.Sprintf("%s.env", envName))}
	shared := filepath.Join(dir, "shared.env")
	if _, err := os.Stat(shared); err == nil {
		files = append(files, shared)
	}
	return godotenv.Load(files...)
}

func printTokens(cfg config.Config, authors []string) error {
	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
		Leeway: cfg.JWTLeeway,
	})
	if err != nil {
		return err
	}
	for _, author := range authors {
		token, err := codec.Encode(author, uuid.NewString())
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", author, token)
	}
	return nil
}
