package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/chain"
	"github.com/cowbatch/settlement/internal/config"
	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/gasprice"
	"github.com/cowbatch/settlement/internal/nativeprice"
	"github.com/cowbatch/settlement/internal/orderbook"
	"github.com/cowbatch/settlement/internal/storage"
)

const version = "1.0.0"

// orderRequest is the wire shape a client POSTs to list an order: the
// same hex-string convention internal/storage uses at its persistence
// boundary, so intake and storage agree on how a U256 travels as text.
type orderRequest struct {
	Owner             string `json:"owner"`
	SellToken         string `json:"sellToken"`
	BuyToken          string `json:"buyToken"`
	Receiver          string `json:"receiver"`
	SellAmount        string `json:"sellAmount"`
	BuyAmount         string `json:"buyAmount"`
	FeeAmount         string `json:"feeAmount"`
	ValidTo           uint32 `json:"validTo"`
	AppData           string `json:"appData"`
	Kind              string `json:"kind"` // "sell" or "buy"
	PartiallyFillable bool   `json:"partiallyFillable"`
	SellTokenBalance  string `json:"sellTokenBalance"` // "erc20" | "external" | "internal"
	BuyTokenBalance   string `json:"buyTokenBalance"`  // "erc20" | "internal"
	Signature         string `json:"signature"`
	SigningScheme     string `json:"signingScheme"` // "eip712" | "ethsign"
}

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

	log.Info().Str("version", version).Msg("orderbook intake service starting")

	store, err := storage.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}

	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial RPC endpoint")
	}

	account := &chain.Account{Client: ethClient, ChainID: nil, To: common.HexToAddress(cfg.SettlementAddr)}
	gasEstimator := gasprice.New(ethClient)
	nativePrices := &nativeprice.ChainlinkEstimator{Client: ethClient, Feeds: map[common.Address]common.Address{}}

	validator := &orderbook.Validator{
		EIP712Domain: orderbook.Domain{
			Name:              "GPv2Settlement",
			Version:           "v2",
			ChainID:           cfg.ChainID,
			VerifyingContract: common.HexToAddress(cfg.SettlementAddr),
		},
		Funds:     account,
		GasPrices: gasEstimator,
		NativePrices: func(ctx context.Context, token domain.Token) (float64, error) {
			results := nativePrices.EstimateNativePrices(ctx, []domain.Token{token})
			if len(results) == 0 {
				return 0, errors.New("orderbook: no native price result")
			}
			return results[0].Price, results[0].Err
		},
		GasPerSettle: 110_000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", postOrderHandler(store, validator))

	server := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", server.Addr).Msg("listening for order submissions")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("orderbook server stopped unexpectedly")
	}
}

func listenAddr(cfg *config.Config) string {
	if addr := os.Getenv("ORDERBOOK_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func postOrderHandler(store *storage.Storage, validator *orderbook.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		order, err := req.toDomain()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		uid, err := orderbook.ComputeUID(validator.EIP712Domain, order)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		order.UID = uid

		if err := validator.Validate(r.Context(), order, time.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		if err := store.InsertOrder(r.Context(), order); err != nil {
			log.Error().Err(err).Msg("failed to persist order")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"uid": hex.EncodeToString(order.UID[:])})
	}
}

func (req orderRequest) toDomain() (*domain.Order, error) {
	sellAmount, err := parseU256(req.SellAmount)
	if err != nil {
		return nil, err
	}
	buyAmount, err := parseU256(req.BuyAmount)
	if err != nil {
		return nil, err
	}
	feeAmount, err := parseU256(req.FeeAmount)
	if err != nil {
		return nil, err
	}

	appDataBytes, err := hex.DecodeString(req.AppData)
	if err != nil || len(appDataBytes) != 32 {
		return nil, errors.New("orderbook: appData must be 32 bytes hex")
	}
	var appData [32]byte
	copy(appData[:], appDataBytes)

	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		return nil, errors.New("orderbook: signature must be hex")
	}

	kind := domain.KindSell
	if req.Kind == "buy" {
		kind = domain.KindBuy
	}

	scheme := domain.SchemeEip712
	if req.SigningScheme == "ethsign" {
		scheme = domain.SchemeEthSign
	}

	order := &domain.Order{
		Owner:             common.HexToAddress(req.Owner),
		SellToken:         common.HexToAddress(req.SellToken),
		BuyToken:          common.HexToAddress(req.BuyToken),
		Receiver:          common.HexToAddress(req.Receiver),
		SellAmount:        sellAmount,
		BuyAmount:         buyAmount,
		FeeAmount:         feeAmount,
		ValidTo:           req.ValidTo,
		AppData:           appData,
		Kind:              kind,
		PartiallyFillable: req.PartiallyFillable,
		SellTokenBalance:  balanceClassFromString(req.SellTokenBalance),
		BuyTokenBalance:   balanceClassFromString(req.BuyTokenBalance),
		Signature:         sig,
		SigningScheme:     scheme,
	}
	return order, nil
}

func balanceClassFromString(s string) domain.BalanceClass {
	switch s {
	case "external":
		return domain.BalanceExternal
	case "internal":
		return domain.BalanceInternal
	default:
		return domain.BalanceErc20
	}
}

func parseU256(s string) (*domain.U256, error) {
	if s == "" {
		return domain.Zero(), nil
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return nil, errors.New("orderbook: malformed u256 value " + s)
	}
	return v, nil
}
