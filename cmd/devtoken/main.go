// Command devtoken prints a staff token for local POS testing.
//
//	go run ./cmd/devtoken -staff cashier-01 -role CASHIER
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/utils"
)

func main() {
	_ = godotenv.Load()

	staff := flag.String("staff", "cashier-01", "staff id (token subject)")
	role := flag.String("role", "CASHIER", "CASHIER or MANAGER")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	tok, err := utils.NewStaffToken(secret, *staff, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
