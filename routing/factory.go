package routing

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/types"
)

// NewReasonerFromConfig builds the configured reasoner backend. Provider
// "none" (or empty) returns nil: the engine then routes by keyword fallback
// only. httpClient may be nil to use each SDK's default.
func NewReasonerFromConfig(cfg config.ReasonerConfig, httpClient *http.Client, logger *zap.Logger) (Reasoner, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		return NewOpenAIReasoner(cfg, httpClient, logger)
	case "anthropic":
		return NewAnthropicReasoner(cfg, httpClient, logger)
	default:
		return nil, types.NewError(types.ErrConfigInvalid,
			fmt.Sprintf("unknown reasoner provider %q", cfg.Provider))
	}
}
