package config

import (
	"flag"
	"os"
	"time"

	"github.com/skydexapp/skydex/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      bearer token validity, hours
//	-v string   vision service chat-completions URL
//	-k string   vision service API key
//	-m string   vision model name
//	-o int      vision request timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-v", "-k", "-m", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token_validity_duration (in hours)")

	fs.StringVar(&config.VisionAPIURL, "v", config.VisionAPIURL, "vision service URL")
	fs.StringVar(&config.VisionAPIKey, "k", config.VisionAPIKey, "vision service API key")
	fs.StringVar(&config.VisionModel, "m", config.VisionModel, "vision model name")
	visionTimeout := fs.Int("o", int(config.VisionTimeout.Seconds()), "vision request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Hour
	config.VisionTimeout = time.Duration(*visionTimeout) * time.Second
}
