package constants

// Server defaults
const (
	DefaultServerPort        = 8080
	DefaultReadTimeoutSec    = 15
	DefaultWriteTimeoutSec   = 15
	DefaultIdleTimeoutSec    = 60
	DefaultShutdownGraceSec  = 30
	DefaultMaxRequestBytes   = 1 << 20 // 1 MB; SMS payloads are tiny
	ServerErrorChannelSize   = 1
	WebhookSignatureHeader   = "X-Twilio-Signature"
	DefaultGatewayTimeoutSec = 30
	DefaultGatewayAPIBaseURL = "https://api.twilio.com"

	DefaultBreakerMaxFailures = 5
	DefaultBreakerCooldownSec = 30
)

// Database defaults
const (
	DefaultDatabaseRetryAttempts = 5
	DefaultRetryBackoffMs        = 100
	DefaultMaxBackoffMs          = 5000
	DefaultRetryMaxAttempts      = 3
)

// Validation limits
const (
	MinPhoneNumberLength = 5
	MaxPhoneNumberLength = 20
	MaxMessageBodyLength = 1600 // Twilio's concatenated SMS limit
	MaxLeadNameLength    = 256
	MaxNotesLength       = 4096
)

// Encryption salts. The key itself always comes from the environment; these
// only ensure derived keys and lookup nonces are application-specific.
const (
	EncryptionSalt       = "leadwire-db-salt-v1"
	EncryptionLookupSalt = "leadwire-lookup-salt-v1"
)
