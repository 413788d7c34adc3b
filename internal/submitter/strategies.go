package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
)

// PublicMempool submits through a node's eth_sendRawTransaction;
// cancellation issues a zero-value self-transfer at the same nonce,
// built and signed by the caller-supplied cancelBuilder (escalated gas
// is the driver's job, not this backend's).
type PublicMempool struct {
	Client        *gethrpc.Client
	CancelBuilder func(ctx context.Context) ([]byte, error)
}

func (p *PublicMempool) SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error) {
	var txHash string
	if err := p.Client.CallContext(ctx, &txHash, "eth_sendRawTransaction", rawHex(raw)); err != nil {
		return nil, classifyRPCError(err)
	}
	return txHash, nil
}

func (p *PublicMempool) CancelTransaction(ctx context.Context, _ Handle) error {
	if p.CancelBuilder == nil {
		return nil
	}
	raw, err := p.CancelBuilder(ctx)
	if err != nil {
		return err
	}
	var txHash string
	return p.Client.CallContext(ctx, &txHash, "eth_sendRawTransaction", rawHex(raw))
}

// PrivateRelay POSTs the signed transaction to an HTTPS relay endpoint
// (Flashbots-style), grounded on the teacher's httpClient-with-timeout
// idiom in exec/client.go.
type PrivateRelay struct {
	Endpoint          string
	HTTPClient        *http.Client
	MaxConfirmTime    time.Duration // bounds how long the relay may hold the bundle before it's considered dropped
	AdditionalTipGwei uint64        // priority payment the relay adds on top of the tx's own tip
}

type privateRelaySubmission struct {
	Tx             string `json:"tx"`
	MaxConfirmSecs int64  `json:"maxConfirmSecs,omitempty"`
	AdditionalTip  uint64 `json:"additionalTipGwei,omitempty"`
}

type privateRelayResponse struct {
	BundleHash string `json:"bundleHash"`
	Error      string `json:"error,omitempty"`
}

func (r *PrivateRelay) SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error) {
	if r.MaxConfirmTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.MaxConfirmTime)
		defer cancel()
	}

	submission := privateRelaySubmission{
		Tx:            rawHex(raw),
		AdditionalTip: r.AdditionalTipGwei,
	}
	if r.MaxConfirmTime > 0 {
		submission.MaxConfirmSecs = int64(r.MaxConfirmTime.Seconds())
	}
	body, err := json.Marshal(submission)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed privateRelayResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("submitter: private relay response: %w", err)
	}
	if parsed.Error != "" {
		return nil, classifyRelayError(parsed.Error)
	}
	return parsed.BundleHash, nil
}

func (r *PrivateRelay) CancelTransaction(ctx context.Context, handle Handle) error {
	bundleHash, _ := handle.(string)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.Endpoint+"/"+bundleHash, nil)
	if err != nil {
		return err
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// CustomRPCSet broadcasts the same signed transaction to N endpoints
// that were checked at startup to share the observed network id.
// Cancellation follows the public-mempool convention: a zero-value
// self-transfer at the same nonce, broadcast to every endpoint.
type CustomRPCSet struct {
	Clients       []*gethrpc.Client
	CancelBuilder func(ctx context.Context) ([]byte, error)
}

func (c *CustomRPCSet) SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error) {
	var lastErr error
	var txHash string
	succeeded := false

	for _, client := range c.Clients {
		var h string
		if err := client.CallContext(ctx, &h, "eth_sendRawTransaction", rawHex(raw)); err != nil {
			lastErr = classifyRPCError(err)
			continue
		}
		txHash = h
		succeeded = true
	}

	if !succeeded {
		return nil, lastErr
	}
	return txHash, nil
}

func (c *CustomRPCSet) CancelTransaction(ctx context.Context, _ Handle) error {
	if c.CancelBuilder == nil {
		return nil
	}
	raw, err := c.CancelBuilder(ctx)
	if err != nil {
		return err
	}
	var lastErr error
	for _, client := range c.Clients {
		var out string
		if err := client.CallContext(ctx, &out, "eth_sendRawTransaction", rawHex(raw)); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// DryRun discards submissions silently, for shadow-mode deployments.
type DryRun struct{}

func (DryRun) SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error) {
	log.Info().Int("bytes", len(raw)).Msg("submitter: dry-run, discarding transaction")
	return "dry-run", nil
}

func (DryRun) CancelTransaction(ctx context.Context, _ Handle) error {
	return nil
}

func rawHex(raw []byte) string {
	return hexutil.Encode(raw)
}

func classifyRPCError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "nonce too low", "invalid nonce", "nonce too high"):
		return fmt.Errorf("%w: %s", ErrInvalidNonce, msg)
	case containsAny(msg, "replacement transaction underpriced", "already known"):
		return fmt.Errorf("%w: %s", ErrTooCheapToReplace, msg)
	default:
		return err
	}
}

func classifyRelayError(msg string) error {
	switch {
	case containsAny(msg, "nonce"):
		return fmt.Errorf("%w: %s", ErrInvalidNonce, msg)
	case containsAny(msg, "underpriced", "too cheap"):
		return fmt.Errorf("%w: %s", ErrTooCheapToReplace, msg)
	default:
		return fmt.Errorf("submitter: relay rejected submission: %s", msg)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
