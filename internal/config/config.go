package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris"
)

// devTokenSecret は開発環境でGAME_TOKEN_SECRETが未設定の場合に使う署名鍵です。
const devTokenSecret = "gitris-engine-dev-secret"

// ErrMissingSecret は本番環境でトークンの署名鍵が設定されていない場合に返されます。
var ErrMissingSecret = errors.New("GAME_TOKEN_SECRET is required in production")

// Config はサーバー全体の設定です。
type Config struct {
	Port           string        // 待ち受けポート
	AppEnv         string        // "production" など
	TokenSecret    []byte        // ゲームトークンの署名鍵 (HMAC)
	TokenTTL       time.Duration // ゲームトークンの有効期間
	AllowedOrigins []string      // CORSとWebSocketで許可するオリジン
	Game           tetris.GameOptions
}

// IsProduction は本番環境かどうかを返します。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load は環境変数から設定を読み込みます。
// 本番環境以外では .env ファイルを先に読み込みます。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv は getenv から設定を組み立てます。テストでは環境変数の代わりにマップを渡せます。
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           stringOr(getenv("PORT"), "8080"),
		AppEnv:         getenv("APP_ENV"),
		AllowedOrigins: splitList(stringOr(getenv("ALLOWED_ORIGINS"), "http://localhost:3000")),
	}

	secret := getenv("GAME_TOKEN_SECRET")
	if secret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}
		log.Printf("[Config] GAME_TOKEN_SECRET is not set, using development secret")
		secret = devTokenSecret
	}
	cfg.TokenSecret = []byte(secret)

	var err error
	if cfg.TokenTTL, err = durationVar(getenv, "GAME_TOKEN_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Game.Gravity.Initial, err = durationVar(getenv, "GRAVITY_INTERVAL", tetris.InitialFallInterval); err != nil {
		return nil, err
	}
	if cfg.Game.Gravity.Min, err = durationVar(getenv, "MIN_GRAVITY_INTERVAL", tetris.MinFallInterval); err != nil {
		return nil, err
	}
	if cfg.Game.Gravity.Step, err = durationVar(getenv, "GRAVITY_STEP", tetris.FallIntervalStep); err != nil {
		return nil, err
	}
	if cfg.Game.Gravity.Min > cfg.Game.Gravity.Initial {
		return nil, fmt.Errorf("MIN_GRAVITY_INTERVAL (%s) must not exceed GRAVITY_INTERVAL (%s)", cfg.Game.Gravity.Min, cfg.Game.Gravity.Initial)
	}
	if cfg.Game.LinesPerLevel, err = intVar(getenv, "LINES_PER_LEVEL", tetris.DefaultLinesPerLevel, 1, 1000); err != nil {
		return nil, err
	}
	if cfg.Game.PreviewCount, err = intVar(getenv, "PREVIEW_COUNT", tetris.DefaultPreviewCount, 1, tetris.MaxPreviewCount); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func durationVar(getenv func(string) string, name string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", name, d)
	}
	return d, nil
}

func intVar(getenv func(string) string, name string, fallback, lo, hi int) (int, error) {
	raw := getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: %d is outside [%d, %d]", name, n, lo, hi)
	}
	return n, nil
}
