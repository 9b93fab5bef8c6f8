package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ResponseContext carries the conversation facts reply templates can use.
type ResponseContext struct {
	LeadName               string
	AvailablePropertyCount int
}

// Decision is the outcome of classifying an inbound message body.
type Decision struct {
	ShouldRespond bool
}

// responseRule pairs a predicate with a reply builder. Rules are evaluated in
// order, first match wins, so the rule set stays mutually exclusive without
// each pattern having to exclude the others.
type responseRule struct {
	pattern *regexp.Regexp
	build   func(lowerBody string, rctx ResponseContext) string
}

// AutoResponder is a deterministic, pattern-matching reply engine. It never
// inspects anything but the message text and the supplied context, so the same
// input always yields the same decision and reply.
type AutoResponder struct {
	skipPatterns []*regexp.Regexp
	rules        []responseRule
}

var (
	optOutPattern   = regexp.MustCompile(`^(stop|unsubscribe|cancel|no more)`)
	shortAckPattern = regexp.MustCompile(`^(yes|yep|ok|okay|sure)$`)

	greetingPattern = regexp.MustCompile(`^(hi|hello|hey|good morning|good afternoon|good evening)`)
	propertyPattern = regexp.MustCompile(`(property|house|home|listing|available|price|cost)`)
	bedroomPattern  = regexp.MustCompile(`(\d+)\s*(bed|bedroom|br)`)
	pricePattern    = regexp.MustCompile(`(\$\d+|\d+\s*(k|thousand|million))`)
	contactPattern  = regexp.MustCompile(`(contact|call|speak|talk|agent|realtor)`)
	thanksPattern   = regexp.MustCompile(`(thank|thanks|appreciate)`)
)

func NewAutoResponder() *AutoResponder {
	return &AutoResponder{
		skipPatterns: []*regexp.Regexp{
			optOutPattern,
			shortAckPattern,
		},
		rules: []responseRule{
			{
				pattern: greetingPattern,
				build: func(string, ResponseContext) string {
					return "Hello! Thank you for your interest in our properties. How can I help you today?"
				},
			},
			{
				pattern: propertyPattern,
				build: func(_ string, rctx ResponseContext) string {
					if rctx.AvailablePropertyCount > 0 {
						return fmt.Sprintf("We have %d properties available! Would you like to see details about a specific property, or tell me what you're looking for (bedrooms, bathrooms, price range)?", rctx.AvailablePropertyCount)
					}
					return "I'd be happy to help you find a property! What are you looking for? (e.g., 3 bedrooms, 2 bathrooms, under $500,000)"
				},
			},
			{
				pattern: bedroomPattern,
				build: func(lowerBody string, _ ResponseContext) string {
					match := bedroomPattern.FindStringSubmatch(lowerBody)
					if len(match) > 1 {
						// Atoi can still fail on absurdly long digit runs;
						// fall through to the generic prompt instead of erroring.
						if bedrooms, err := strconv.Atoi(match[1]); err == nil {
							return fmt.Sprintf("Great! I'll look for %d bedroom properties. What's your price range?", bedrooms)
						}
					}
					return "I'd be happy to help you find properties! How many bedrooms are you looking for?"
				},
			},
			{
				pattern: pricePattern,
				build: func(string, ResponseContext) string {
					return "Perfect! I'll search for properties in that price range. What area are you interested in?"
				},
			},
			{
				pattern: contactPattern,
				build: func(string, ResponseContext) string {
					return "I'd be happy to connect you with one of our agents! Please provide your name and best time to contact you, or call us directly."
				},
			},
			{
				pattern: thanksPattern,
				build: func(string, ResponseContext) string {
					return "You're welcome! Is there anything else I can help you with?"
				},
			},
		},
	}
}

// Decide reports whether an inbound body warrants an automated reply. Opt-out
// keywords and bare acknowledgements are the only messages left unanswered.
func (r *AutoResponder) Decide(inboundBody string) Decision {
	lower := strings.ToLower(strings.TrimSpace(inboundBody))

	for _, pattern := range r.skipPatterns {
		if pattern.MatchString(lower) {
			return Decision{ShouldRespond: false}
		}
	}

	return Decision{ShouldRespond: true}
}

// Generate produces the reply text for an inbound body. Callers should only
// invoke it after Decide returned ShouldRespond.
func (r *AutoResponder) Generate(inboundBody string, rctx ResponseContext) string {
	lower := strings.ToLower(strings.TrimSpace(inboundBody))

	for _, rule := range r.rules {
		if rule.pattern.MatchString(lower) {
			return rule.build(lower, rctx)
		}
	}

	return "Thank you for your message! I'm here to help you find the perfect property. You can ask me about available properties, prices, or schedule a viewing."
}
