package main

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/badtoken"
	"github.com/cowbatch/settlement/internal/blockstream"
	"github.com/cowbatch/settlement/internal/cache"
	"github.com/cowbatch/settlement/internal/chain"
	"github.com/cowbatch/settlement/internal/config"
	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/gasprice"
	"github.com/cowbatch/settlement/internal/nativeprice"
	"github.com/cowbatch/settlement/internal/solver"
	"github.com/cowbatch/settlement/internal/storage"
	"github.com/cowbatch/settlement/internal/submitter"
)

const version = "1.0.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("version", version).Int64("chain_id", cfg.ChainID).Msg("settlement driver starting")

	store, err := storage.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}

	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial RPC endpoint")
	}

	privateKey, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signing key")
	}

	account := &chain.Account{
		Client:     ethClient,
		PrivateKey: privateKey,
		ChainID:    big.NewInt(cfg.ChainID),
		To:         common.HexToAddress(cfg.SettlementAddr),
	}

	gasEstimator := gasprice.New(ethClient)
	nativePrices := &nativeprice.ChainlinkEstimator{Client: ethClient, Feeds: map[common.Address]common.Address{}}
	badTokens := badtoken.NewDenylist(nil)

	stream := blockstream.New(cfg.WebsocketURL)
	stream.Start()
	defer stream.Stop()

	solvableCache := cache.New(cache.Config{
		MinValidity:  cfg.MinValidity,
		PollInterval: cfg.CachePollPeriod,
	}, store, account, nativePrices, badTokens, stream)

	backend := buildBackend(cfg, account)

	driverCfg := submitter.DefaultConfig()
	driverCfg.GasEstimateHeadroom = cfg.GasEstimateHeadroom
	driverCfg.NonceWatchInterval = cfg.NonceWatchInterval
	driverCfg.PropagationWait = cfg.PropagationWait
	driverCfg.PropagationPoll = cfg.PropagationPoll
	driverCfg.EscalationFactor = cfg.EscalationFactor
	if cfg.GasPriceCapWei > 0 {
		driverCfg.GasPriceCap = domain.FromUint64(cfg.GasPriceCapWei)
	}

	driver := submitter.New(driverCfg, backend, gasEstimator, account, account, account, account)

	if rpcClient, err := gethrpc.DialContext(context.Background(), cfg.RPCURL); err == nil {
		estimator := &submitter.RPCAccessListEstimator{Client: rpcClient}
		driver.WithAccessListEstimator(estimator, crypto.PubkeyToAddress(privateKey.PublicKey), account.To)
	} else {
		log.Warn().Err(err).Msg("access-list estimation disabled: could not open a raw RPC client")
	}

	strategy := solver.NoOp{}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go solvableCache.Run(ctx)
	go runSettlementLoop(ctx, solvableCache, strategy, driver, store, cfg.SubmissionDeadline)

	<-ctx.Done()
	log.Info().Msg("settlement driver shutting down")
}

func loadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hex := strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")
	return crypto.HexToECDSA(hex)
}

func buildBackend(cfg *config.Config, account *chain.Account) submitter.Backend {
	cancelBuilder := func(ctx context.Context) ([]byte, error) {
		nonce, err := account.Nonce(ctx)
		if err != nil {
			return nil, err
		}
		return account.CancelTransaction(nonce, submitter.GasPrice{})
	}

	switch cfg.Backend {
	case "private_relay":
		return &submitter.PrivateRelay{
			Endpoint:       cfg.PrivateRelayURL,
			HTTPClient:     &http.Client{Timeout: 30 * time.Second},
			MaxConfirmTime: cfg.SubmissionDeadline,
		}
	case "custom_rpc":
		networkID, err := account.Client.NetworkID(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read network id for the custom RPC endpoint check")
		}
		var clients []*gethrpc.Client
		for _, url := range cfg.CustomRPCURLs {
			c, err := gethrpc.DialContext(context.Background(), url)
			if err != nil {
				log.Warn().Err(err).Str("url", url).Msg("custom RPC endpoint unreachable, skipping")
				continue
			}
			var version string
			if err := c.CallContext(context.Background(), &version, "net_version"); err != nil || version != networkID.String() {
				log.Warn().Err(err).Str("url", url).Str("network_id", version).Msg("custom RPC endpoint not on the observed network, skipping")
				c.Close()
				continue
			}
			clients = append(clients, c)
		}
		return &submitter.CustomRPCSet{Clients: clients, CancelBuilder: cancelBuilder}
	case "public":
		rpcClient, err := gethrpc.DialContext(context.Background(), cfg.RPCURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to dial public mempool RPC")
		}
		return &submitter.PublicMempool{Client: rpcClient, CancelBuilder: cancelBuilder}
	default:
		return submitter.DryRun{}
	}
}

// runSettlementLoop wakes periodically, asks the configured solver for
// candidate drafts against the cache's current auction view, and
// submits the first one it gets. With solver.NoOp wired by default
// this never fires; it is the hookup point a real clearing-price
// strategy plugs into.
func runSettlementLoop(ctx context.Context, c *cache.Cache, strategy solver.Solver, driver *submitter.Driver, store *storage.Storage, deadlineWindow time.Duration) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			auction, _ := c.CachedAuction()
			drafts, err := strategy.Solve(ctx, auction)
			if err != nil {
				log.Warn().Err(err).Msg("solver failed")
				continue
			}
			if len(drafts) == 0 {
				continue
			}

			encoded, err := drafts[0].Finish()
			if err != nil {
				log.Warn().Err(err).Msg("failed to finish settlement draft")
				continue
			}
			calldata, err := encoded.Pack()
			if err != nil {
				log.Warn().Err(err).Msg("failed to pack settlement calldata")
				continue
			}

			deadline := time.Now().Add(deadlineWindow)
			hash, err := driver.Submit(ctx, estimateGasForTrades(len(encoded.Trades)), calldata, deadline)
			if err != nil {
				log.Error().Err(err).Msg("settlement submission did not land")
				continue
			}

			if err := store.RecordSubmission(ctx, auction.Block, hash); err != nil {
				log.Warn().Err(err).Msg("failed to record settlement submission")
				continue
			}
			// Submit returns a nil error only once a mined receipt was found.
			if err := store.ResolveSubmission(ctx, auction.Block, "confirmed", ""); err != nil {
				log.Warn().Err(err).Msg("failed to mark settlement submission confirmed")
			}
		}
	}
}

// estimateGasForTrades is a coarse placeholder gas estimate (base
// settlement overhead plus a per-trade allotment) until a solver
// reports its own figure alongside the draft.
func estimateGasForTrades(tradeCount int) uint64 {
	const baseGas = 150_000
	const perTradeGas = 110_000
	return baseGas + uint64(tradeCount)*perTradeGas
}
