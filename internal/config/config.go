package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	DBDSN        string
	JWTIssuer    string
	JWTSecret    string
	JWTTTL       time.Duration
	QuoteAPIKey  string
	QuoteAPIURL  string
	WSOrigin     string
	StartingCash string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	// The quote provider is unusable without a key, so its absence is
	// a startup failure rather than a runtime one.
	c.QuoteAPIKey = os.Getenv("QUOTE_API_KEY")
	if c.QuoteAPIKey == "" {
		missing = append(missing, "QUOTE_API_KEY")
	}
	c.QuoteAPIURL = os.Getenv("QUOTE_API_URL")
	if c.QuoteAPIURL == "" {
		c.QuoteAPIURL = "https://cloud.iexapis.com"
	}
	c.WSOrigin = os.Getenv("WS_ORIGIN")
	if c.WSOrigin == "" {
		c.WSOrigin = "*"
	}
	c.StartingCash = os.Getenv("STARTING_CASH")
	if c.StartingCash == "" {
		c.StartingCash = "10000"
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
