package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where lifetales stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI configuration
	AIEnabled     bool    // LIFETALES_AI_ENABLED
	AIAPIKey      string  // LIFETALES_AI_API_KEY
	AIBaseURL     string  // LIFETALES_AI_BASE_URL (default: https://api.openai.com/v1)
	AIModel       string  // LIFETALES_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens   int     // LIFETALES_AI_MAX_TOKENS (default: 1024)
	AITemperature float32 // LIFETALES_AI_TEMPERATURE (default: 0.7)

	// Transcription configuration
	TranscribeEnabled  bool   // LIFETALES_TRANSCRIBE_ENABLED
	TranscribeModel    string // LIFETALES_TRANSCRIBE_MODEL (default: whisper-1)
	TranscribeLanguage string // LIFETALES_TRANSCRIBE_LANGUAGE (default: en)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills in derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.AIBaseURL == "" {
		p.AIBaseURL = "https://api.openai.com/v1"
	}
	if p.AIModel == "" {
		p.AIModel = "gpt-4o-mini"
	}
	if p.AIMaxTokens <= 0 {
		p.AIMaxTokens = 1024
	}
	if p.AITemperature <= 0 {
		p.AITemperature = 0.7
	}
	if p.TranscribeModel == "" {
		p.TranscribeModel = "whisper-1"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrap(err, "failed to check data directory")
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("lifetales_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
