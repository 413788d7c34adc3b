package submitter

import (
	"time"

	"github.com/cowbatch/settlement/internal/domain"
)

// Config holds the submission driver's tunables.
type Config struct {
	GasEstimateHeadroom float64       // e.g. 0.10 for spec.md's "typically 10%"
	GasPriceCap         *domain.U256  // configured_gas_price_cap
	RetryInterval       time.Duration // default 1-10s depending on strategy
	TargetConfirmTime   time.Duration
	NonceWatchInterval  time.Duration // default 1s
	PropagationWait     time.Duration // default 20s
	PropagationPoll     time.Duration // default 5s
	EscalationFactor    float64       // 1.125 per spec.md §4.3.1 step 6
}

// DefaultConfig mirrors spec.md's literal defaults.
func DefaultConfig() Config {
	return Config{
		GasEstimateHeadroom: 0.10,
		RetryInterval:       2 * time.Second,
		NonceWatchInterval:  1 * time.Second,
		PropagationWait:     20 * time.Second,
		PropagationPoll:     5 * time.Second,
		EscalationFactor:    1.125,
	}
}
