package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	sessionManager := tetris.NewSessionManager(cfg.Game)
	tokens := middleware.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)

	gameHandler := handlers.NewGameHandler(sessionManager, tokens, cfg.AllowedOrigins)
	publicHandler := handlers.NewPublicHandler(sessionManager)
	router := handlers.NewRouter(gameHandler, publicHandler, tokens, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("ゲームを作成するには POST http://localhost:%s/api/games を呼び出してください", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗しました: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("シャットダウンシグナルを受信しました")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTPサーバーのシャットダウンに失敗しました: %v", err)
	}
	// ハイジャックされたWebSocket接続は Shutdown の対象外なので、セッション側で閉じる
	sessionManager.Shutdown()
	log.Println("Server stopped")
}
