package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/survey-manager-api/internal/auth"
	"github.com/sngm3741/survey-manager-api/internal/config"
	"github.com/sngm3741/survey-manager-api/internal/infrastructure"
	"github.com/sngm3741/survey-manager-api/internal/interfaces/http/common"
	surveyhttp "github.com/sngm3741/survey-manager-api/internal/interfaces/http/survey"
	"github.com/sngm3741/survey-manager-api/internal/metrics"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
)

// Server は HTTP サーバーのライフサイクルを管理し、ディスパッチャとハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *logrus.Logger
	store          infrastructure.Store
	closeStore     infrastructure.CloseFunc
	codec          *auth.Codec
	metrics        *metrics.Metrics
	commands       *application.CommandDispatcher
	queries        *application.QueryDispatcher
	addr           string
	allowedOrigins []string
	requestTimeout time.Duration
	tokenOverride  bool
	router         http.Handler
}

// New は Config とストアを受け取り、トークンコーデック・ディスパッチャ・ルータを組み立てた Server を返す。
// closeStore は停止時に一度だけ呼ばれる。nil でもよい。
func New(cfg config.Config, store infrastructure.Store, closeStore infrastructure.CloseFunc) (*Server, error) {
	logger := cfg.ServerLog
	if logger == nil {
		logger = logrus.New()
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
		Leeway: cfg.JWTLeeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	m := metrics.New()
	srv := &Server{
		logger:         logger,
		store:          store,
		closeStore:     closeStore,
		codec:          codec,
		metrics:        m,
		commands:       application.NewCommandDispatcher(store, m),
		queries:        application.NewQueryDispatcher(store, m),
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		requestTimeout: cfg.RequestTimeout,
		tokenOverride:  cfg.TokenUsernameOverride,
	}
	if srv.tokenOverride {
		logger.Warn("AUTH_TOKEN_DEV_OVERRIDE が有効です。/token で任意のユーザーのトークンを発行できます")
	}
	srv.router = srv.routes()
	return srv, nil
}

// Handler はテストや外部サーバーから利用するためにルータを公開する。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))
	router.Use(s.metrics.InstrumentHandler)

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	surveyHandler := surveyhttp.NewHandler(surveyhttp.Config{
		Logger:   s.logger,
		Commands: s.commands,
		Queries:  s.queries,
		Tokens:   s.codec,
		Timeout:  s.requestTimeout,

		AllowUsernameOverride: s.tokenOverride,
	})
	surveyHandler.Register(router,
		common.RequireBearer(s.codec, s.logger),
		common.OptionalBearer(s.codec, s.logger),
	)
	return router
}

// Run は HTTP サーバーを起動し、シグナル受信またはサーバー異常終了まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions && origin != "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler はストアへの疎通確認を行い、監視系からのヘルスチェック要求に応える。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("ストアへの疎通確認に失敗")
			common.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  "store unreachable",
			})
			return
		}

		common.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// shutdown はストアのコネクションプールをタイムアウト付きで閉じる。
func (s *Server) shutdown(ctx context.Context) {
	if s.closeStore == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.closeStore(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("ストア切断時にエラー")
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Infof("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.WithError(err).Error("サーバー停止時にエラー")
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
