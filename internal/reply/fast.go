package reply

import (
	"strings"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// Scripted replies used by the fast policy and the fallback paths.
const (
	EmptyInputReply     = "Please type a message."
	NormalFollowUpReply = "OK. Aap thoda detail me batao?"
	HoneypotSlowReply   = "Network slow hai. Aap phir se boliye?"
	NormalSlowReply     = "I’m having trouble reaching the model right now. Please try again."
)

// honeypotRule maps trigger words in the scammer's message to a scripted
// reply. Rules are checked in order and the first match wins.
type honeypotRule struct {
	triggers []string
	reply    string
}

var honeypotRules = []honeypotRule{
	{[]string{"otp"}, "Ye kis cheez ka OTP hai?"},
	{[]string{"kyc"}, "KYC kyun karni hai? Aap kaun bol rahe ho?"},
	{[]string{"lottery", "winner", "reward"}, "Kaunsi lottery? Maine kahin naam nahi diya."},
	{[]string{"link", "click"}, "Link kaise? Mere phone me khulta nahi."},
	{[]string{"bank", "account"}, "Bank ka naam kya hai?"},
	{[]string{"urgent", "jaldi"}, "Aap itna jaldi kyun bol rahe ho?"},
}

// StallingReplies are picked at random when no honeypot rule matches.
var StallingReplies = []string{
	"Haan ji? Kaun bol rahe ho?",
	"Mujhe samajh nahi aaya, thoda sa dobara boliye?",
	"Ye baat aapko kaise pata?",
	"Main abhi dukaan pe hoon, baad me bolu?",
}

// FastHoneypot returns the scripted persona reply for text. pick chooses an
// index in [0, n) for the stalling fallback.
func FastHoneypot(text string, pick func(n int) int) string {
	lower := strings.ToLower(text)
	for _, rule := range honeypotRules {
		for _, trig := range rule.triggers {
			if strings.Contains(lower, trig) {
				return rule.reply
			}
		}
	}
	return StallingReplies[pick(len(StallingReplies))]
}

// FastNormal returns the scripted reply for an ordinary conversation.
func FastNormal(text string) string {
	if strings.TrimSpace(text) == "" {
		return EmptyInputReply
	}
	return NormalFollowUpReply
}

// SlowReply is the reply used when the model times out.
func SlowReply(mode model.Mode) string {
	if mode == model.ModeHoneypot {
		return HoneypotSlowReply
	}
	return NormalSlowReply
}
