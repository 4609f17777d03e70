package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"lumiere/internal/config"
	"lumiere/internal/security"
)

func main() {
	subject := flag.String("subject", "learner", "Token subject")
	ttl := flag.Duration("ttl", 0, "Token lifetime, e.g. 720h (default: no expiry)")
	verify := flag.String("verify", "", "Validate a token instead of issuing one")
	flag.Parse()

	cfg := config.Load()
	if cfg.AuthSecret == "" {
		log.Fatal("AUTH_SECRET is not set")
	}
	issuer := security.NewTokenIssuer(cfg.AuthSecret)

	if *verify != "" {
		claims, err := issuer.Validate(*verify)
		if err != nil {
			log.Fatalf("Invalid token: %v", err)
		}
		fmt.Printf("subject=%s id=%s", claims.Subject, claims.ID)
		if claims.ExpiresAt != nil {
			fmt.Printf(" expires=%s", claims.ExpiresAt.Time.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return
	}

	token, err := issuer.Issue(*subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
