// Command token mints an operator bearer token for the wallet API.
//
//	go run ./cmd/token -username ops
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"wallet-service/config"
	"wallet-service/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	username := flag.String("username", "", "operator username recorded on audited writes (required)")
	actor := flag.String("actor-id", "", "operator id (uuid); random when empty")
	flag.Parse()

	_ = godotenv.Load()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "-username is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.JWT.Enabled() {
		fmt.Fprintln(os.Stderr, "jwt.secret (WLT_JWT_SECRET) is not set")
		os.Exit(1)
	}

	actorID := uuid.New()
	if *actor != "" {
		if actorID, err = uuid.Parse(*actor); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -actor-id: %v\n", err)
			os.Exit(2)
		}
	}

	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	token, expiry, err := tokenSvc.Generate(actorID, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("actor_id: %s\nexpires:  %s\n\n%s\n", actorID, expiry.UTC().Format(time.RFC3339), token)
}
