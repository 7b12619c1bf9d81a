package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Raffle   RaffleConfig
	Pricing  Pricing
	Pix      PixConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// RaffleConfig describes the active raffle instance the storefront serves.
type RaffleConfig struct {
	ID           string
	TotalNumbers int
	// GoldenNumbers is the fixed set of numbers that carry an instant
	// bonus prize. No claim is persisted; the set only flags responses.
	GoldenNumbers []int
}

func (c RaffleConfig) IsGolden(n int) bool {
	for _, g := range c.GoldenNumbers {
		if g == n {
			return true
		}
	}
	return false
}

// PixConfig is the static PIX payment surface: a BR Code string the buyer
// copies into their banking app. Payment is never verified server-side.
type PixConfig struct {
	Code string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPortStr := os.Getenv("POSTGRES_PORT")
	if postgresPortStr == "" {
		postgresPortStr = "5432"
	}

	postgresPort, err := strconv.Atoi(postgresPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	raffleCfg, err := newRaffleConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pricing, err := newPricing()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pixCode := os.Getenv("PIX_CODE")
	if pixCode == "" {
		pixCode = "000201265802BR5913NOMECOMPLETO6009SAOPAULO62070503***6304E2A8"
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Raffle:   raffleCfg,
		Pricing:  pricing,
		Pix:      PixConfig{Code: pixCode},
	}, nil
}

func newRaffleConfig() (RaffleConfig, error) {
	raffleID := os.Getenv("RAFFLE_ID")
	if raffleID == "" {
		raffleID = "main-raffle"
	}

	totalStr := os.Getenv("RAFFLE_TOTAL_NUMBERS")
	if totalStr == "" {
		totalStr = "500"
	}

	total, err := strconv.Atoi(totalStr)
	if err != nil || total <= 0 {
		return RaffleConfig{}, fmt.Errorf("invalid RAFFLE_TOTAL_NUMBERS %q", totalStr)
	}

	goldenStr := os.Getenv("RAFFLE_GOLDEN_NUMBERS")
	if goldenStr == "" {
		goldenStr = "7,70,123,250,333,444"
	}

	golden, err := parseNumberList(goldenStr, total)
	if err != nil {
		return RaffleConfig{}, fmt.Errorf("invalid RAFFLE_GOLDEN_NUMBERS: %w", err)
	}

	return RaffleConfig{
		ID:            raffleID,
		TotalNumbers:  total,
		GoldenNumbers: golden,
	}, nil
}

func parseNumberList(s string, max int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", part)
		}

		if n < 1 || n > max {
			return nil, fmt.Errorf("number %d out of range [1, %d]", n, max)
		}

		out = append(out, n)
	}

	return out, nil
}
