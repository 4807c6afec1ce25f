// scripts/generate_password.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/your-org/sitestock-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Generates a bcrypt hash for provisioning accounts by hand, typically to
// replace the seeded admin credentials before the first deployment.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	password := os.Args[1]

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BcryptCost)
	if err != nil {
		log.Fatal("Error generating hash:", err)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Hash: %s\n", string(hash))
	fmt.Println("Update the admin row in the users table with this hash.")

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		log.Fatal("Hash verification failed:", err)
	}

	fmt.Println("✅ Hash verified successfully!")
}
