// Package classifier flags scam messages by keyword presence.
package classifier

import (
	"strings"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

const (
	// ScamConfidence is reported when at least one indicator matches.
	ScamConfidence = 0.9
	// CleanConfidence is reported when no indicator matches.
	CleanConfidence = 0.2
)

// DefaultIndicators is the financial, urgency and phishing vocabulary,
// including the Hinglish phrases scammers commonly use.
var DefaultIndicators = []string{
	"otp", "kyc", "bank", "account", "verify", "blocked", "block", "suspend",
	"sessed", "suspicious", "reward", "lottery", "winner", "claim", "free",
	"loan", "credit", "urgent", "click", "link", "batao", "bhejo", "bhej do",
	"paise", "paise bhejo", "account band", "otp batao", "kyc karo", "bank se",
	"scammer",
}

// Classifier scores text against a fixed set of lower-case indicator
// substrings.
type Classifier struct {
	indicators []string
}

// New returns a Classifier for the given indicators. With no indicators the
// DefaultIndicators are used.
func New(indicators ...string) *Classifier {
	if len(indicators) == 0 {
		indicators = DefaultIndicators
	}
	seen := make(map[string]struct{}, len(indicators))
	list := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if ind == "" {
			continue
		}
		if _, dup := seen[ind]; dup {
			continue
		}
		seen[ind] = struct{}{}
		list = append(list, ind)
	}
	return &Classifier{indicators: list}
}

// Classify returns a scam verdict for text. Each indicator counts once no
// matter how often it occurs, and a single hit is enough.
func (c *Classifier) Classify(text string) model.ScamVerdict {
	lower := strings.ToLower(text)

	var matches []string
	for _, ind := range c.indicators {
		if strings.Contains(lower, ind) {
			matches = append(matches, ind)
		}
	}

	if len(matches) > 0 {
		return model.ScamVerdict{IsScam: true, Confidence: ScamConfidence, Matches: matches}
	}
	return model.ScamVerdict{IsScam: false, Confidence: CleanConfidence}
}

// Indicators returns a copy of the indicator list.
func (c *Classifier) Indicators() []string {
	return append([]string(nil), c.indicators...)
}
