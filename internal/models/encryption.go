package models

// Parameters for at-rest field encryption.
const (
	KeySize    = 32 // AES-256
	NonceSize  = 12 // GCM standard nonce size
	Iterations = 100000
)
