package kakaopay

// Config represents the configuration for the Kakao Pay subscription client
type Config struct {
	// SecretKey is sent as "SECRET_KEY <key>"
	SecretKey string

	// CID is the subscription merchant code (TCSUBSCRIP for test)
	CID string

	// BaseURL is the Kakao Pay online payment API base URL
	BaseURL string

	// Redirect URLs for the first (billing key issuing) payment
	ApprovalURL string
	FailURL     string
	CancelURL   string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch "" {
	case c.SecretKey, c.CID, c.BaseURL, c.ApprovalURL, c.FailURL, c.CancelURL:
		return ErrInvalidRequest
	}
	return nil
}
