package config

import "memorygame/internal/domain"

const (
	defaultPairs            = 16
	defaultTotalSlots       = 36
	defaultTickRate         = 10
	defaultRevealDelayTicks = 3 // 0.3s at the default tick rate
	defaultBotDelayTicks    = 5
	defaultIssuer           = "memorygame"
	defaultResultTTLSeconds = 3600
)

func defaultSymbols() []string {
	out := make([]string, 0, len(domain.DefaultSymbols))
	for _, s := range domain.DefaultSymbols {
		out = append(out, string(s))
	}
	return out
}
