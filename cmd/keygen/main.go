package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/duty-roster-go/pkg/auth"
	"github.com/arnavshah/duty-roster-go/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET is not set")
		os.Exit(1)
	}

	userID := os.Args[1]
	key := auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.TokenTTL).GenerateHMACKey(userID)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, key)
}
