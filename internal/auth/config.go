// Package auth establishes who the viewer is: magic-link and passkey login,
// cookie sessions for the web UI, and bearer API keys for the CLI.
package auth

// Config holds authentication configuration.
type Config struct {
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	DevMode  bool
	BaseURL  string // e.g. http://localhost:8080
}
