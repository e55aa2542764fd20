package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string // postgres (по умолчанию) или sqlite
	DBDSN         string
	ServerPort    string
	SessionSecret string
	JWTSecret     string

	NatsURL       string
	RedisAddr     string // пусто — PIN-коды живут в памяти процесса
	PublicBaseURL string // базовый адрес для ссылок-приглашений
	ProofBucket   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:      os.Getenv("DB_DRIVER"),
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		NatsURL:       os.Getenv("NATS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		ProofBucket:   os.Getenv("PROOF_BUCKET"),
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if cfg.NatsURL == "" {
		cfg.NatsURL = "nats://localhost:4222"
	}
	if cfg.ProofBucket == "" {
		cfg.ProofBucket = "task-proofs"
	}

	return cfg
}
