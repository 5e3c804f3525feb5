// Command optoken mints an operator bearer token signed with JWT_SECRET.
//
//	optoken -sub amina -ttl 720
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hmweb77/macaroness/internal/config"
	"github.com/hmweb77/macaroness/internal/middleware"
	"github.com/hmweb77/macaroness/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("ignoring unreadable .env: %v", err)
	}
	sub := flag.String("sub", "", "operator name stored in the sub claim")
	ttl := flag.Int("ttl", config.OperatorTokenTTL(), "token lifetime in minutes; defaults to OPERATOR_TOKEN_TTL_MIN")
	flag.Parse()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if *sub == "" {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := utils.NewAccessToken(secret, *sub, middleware.RoleOperator, *ttl)
	if err != nil {
		log.Fatalf("mint token: %v", err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format("2006-01-02 15:04 MST"))
}
