// Command admin_seed prints the bcrypt hash of the admin elevation passcode
// for use as ADMIN_PASSCODE_HASH.
package main

import (
	"fmt"
	"log"
	"os"

	"tourneypay/internal/config"
	"tourneypay/internal/services/elevation"
)

func main() {
	config.LoadEnv()

	passcode := os.Getenv("ADMIN_PASSCODE")
	if passcode == "" {
		log.Fatal("ADMIN_PASSCODE must be set in environment")
	}

	if existing := os.Getenv("ADMIN_PASSCODE_HASH"); existing != "" {
		log.Println("⚠️ ADMIN_PASSCODE_HASH is already set, printing a replacement")
	}

	hash, err := elevation.HashPasscode(passcode)
	if err != nil {
		log.Fatal("Failed to hash passcode:", err)
	}

	fmt.Printf("ADMIN_PASSCODE_HASH=%s\n", hash)
	log.Println("✅ Admin passcode hash generated")
}
