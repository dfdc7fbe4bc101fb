// Command createadmin bootstraps a staff/superuser account, prompting for
// the password without echoing it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"recipedia/internal/config"
	"recipedia/internal/db"
	"recipedia/models"
)

func main() {
	email := flag.String("email", "", "email address for the admin account")
	name := flag.String("name", "", "display name for the admin account")
	flag.Parse()

	if !models.ValidEmail(*email) {
		log.Fatal("a valid -email is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	if len(password) < 5 {
		log.Fatal("password must be at least 5 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := models.User{
		Email:        models.NormalizeEmail(*email),
		Name:         strings.TrimSpace(*name),
		PasswordHash: string(hashed),
		Active:       true,
		Staff:        true,
		Superuser:    true,
	}

	if err := database.Create(&user).Error; err != nil {
		log.Fatalf("create admin account: %v", err)
	}

	fmt.Printf("admin account %s created (id %d)\n", user.Email, user.ID)
}
