package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the settlement engine's full runtime configuration, loaded
// from environment variables (the cmd entrypoints load an optional .env
// file into the environment before calling Load).
type Config struct {
	// Chain / RPC
	ChainID         int64
	RPCURL          string
	WebsocketURL    string
	SettlementAddr  string // GPv2Settlement contract address

	// Submission backend
	Backend          string // "public", "private_relay", "custom_rpc", "dry_run"
	PrivateRelayURL  string
	CustomRPCURLs    []string

	// Account
	PrivateKeyPath string

	// Storage
	DatabaseDSN string

	// Solvable-orders cache (spec.md §3)
	MinValidity     time.Duration
	CachePollPeriod time.Duration

	// Submission driver (spec.md §4.3)
	GasEstimateHeadroom float64
	GasPriceCapWei      uint64
	SubmissionDeadline  time.Duration
	NonceWatchInterval  time.Duration
	PropagationWait     time.Duration
	PropagationPoll     time.Duration
	EscalationFactor    float64

	Debug bool
}

// Load reads configuration from the process environment only; the
// .env-then-os.Getenv layering of the teacher's cmd/polybot/main.go is
// split so that cmd/*/main.go runs godotenv.Load before calling Load.
func Load() (*Config, error) {
	cfg := &Config{
		ChainID:        int64(getEnvInt("CHAIN_ID", 1)),
		RPCURL:         getEnv("RPC_URL", "http://localhost:8545"),
		WebsocketURL:   getEnv("WS_URL", ""),
		SettlementAddr: getEnv("SETTLEMENT_CONTRACT", ""),

		Backend:         getEnv("SUBMISSION_BACKEND", "dry_run"),
		PrivateRelayURL: getEnv("PRIVATE_RELAY_URL", ""),

		PrivateKeyPath: getEnv("PRIVATE_KEY_PATH", ""),

		DatabaseDSN: getEnv("DATABASE_DSN", "data/settlement.db"),

		MinValidity:     getEnvDuration("MIN_ORDER_VALIDITY", 2*time.Minute),
		CachePollPeriod: getEnvDuration("CACHE_POLL_PERIOD", 2*time.Second),

		GasEstimateHeadroom: getEnvFloat("GAS_ESTIMATE_HEADROOM", 0.10),
		GasPriceCapWei:      uint64(getEnvInt("GAS_PRICE_CAP_WEI", 500_000_000_000)),
		SubmissionDeadline:  getEnvDuration("SUBMISSION_DEADLINE", 30*time.Second),
		NonceWatchInterval:  getEnvDuration("NONCE_WATCH_INTERVAL", 1*time.Second),
		PropagationWait:     getEnvDuration("PROPAGATION_WAIT", 20*time.Second),
		PropagationPoll:     getEnvDuration("PROPAGATION_POLL", 5*time.Second),
		EscalationFactor:    getEnvFloat("GAS_ESCALATION_FACTOR", 1.125),

		Debug: getEnvBool("DEBUG", false),
	}

	if urls := getEnv("CUSTOM_RPC_URLS", ""); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.CustomRPCURLs = append(cfg.CustomRPCURLs, u)
			}
		}
	}

	if cfg.Backend == "private_relay" && cfg.PrivateRelayURL == "" {
		return nil, fmt.Errorf("PRIVATE_RELAY_URL is required when SUBMISSION_BACKEND=private_relay")
	}
	if cfg.Backend == "custom_rpc" && len(cfg.CustomRPCURLs) == 0 {
		return nil, fmt.Errorf("CUSTOM_RPC_URLS is required when SUBMISSION_BACKEND=custom_rpc")
	}
	if cfg.SettlementAddr == "" {
		return nil, fmt.Errorf("SETTLEMENT_CONTRACT is required")
	}
	if cfg.WebsocketURL == "" {
		return nil, fmt.Errorf("WS_URL is required: the solvable-orders cache's block stream subscribes to newHeads over it")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
