package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"conquerx-notifier/internal/adapters/gcal"
	"conquerx-notifier/internal/infra/config"
)

func main() {
	var (
		credentialsFile string
		tokenFile       string
		code            string
	)
	cfg := config.Load()
	flag.StringVar(&credentialsFile, "credentials", cfg.Google.CredentialsFile, "Path to OAuth client credentials JSON")
	flag.StringVar(&tokenFile, "token", cfg.Google.TokenFile, "Where to store the OAuth token")
	flag.StringVar(&code, "code", "", "Authorization code; prompted for when empty")
	flag.Parse()

	oauthCfg, err := gcal.LoadConfig(credentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("authorize: failed to read credentials")
	}
	auth := gcal.NewAuth(oauthCfg, gcal.NewTokenStore(tokenFile))

	if code == "" {
		fmt.Printf("Authorize this app by visiting this url:\n%s\n\nEnter the code from that page here: ", auth.AuthURL())
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatal().Err(err).Msg("authorize: failed to read code")
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		log.Fatal().Msg("authorize: authorization code is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tok, err := auth.Exchange(ctx, code)
	if err != nil {
		log.Fatal().Err(err).Msg("authorize: failed to exchange code")
	}
	fmt.Printf("Token stored to %s (expires %s)\n", tokenFile, tok.Expiry.Format(time.RFC3339))
}
