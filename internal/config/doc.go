// Package config provides configuration management for spellforge.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use: the
// in-memory backends, no Discord bot and no LLM key.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
