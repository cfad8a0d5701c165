package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"shoplist-backend/config"
	"shoplist-backend/pkg/helpers"
)

// Seeds the first approved member. Every later registration starts inactive
// and needs an existing member to approve it, so one account has to be
// bootstrapped outside the normal flow.
func main() {
	email := flag.String("email", "admin@example.com", "account email")
	password := flag.String("password", "password123", "account password")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO auth_users (email, password_hash, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, *email, hash, *name).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed credentials: %v", err)
	}

	profile, err := json.Marshal(map[string]any{
		"email":    *email,
		"name":     *name,
		"photoURL": nil,
		"bio":      "",
		"isActive": true,
	})
	if err != nil {
		log.Fatalf("failed to encode profile: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO documents (collection, id, data)
		VALUES ('users', $1, $2)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, id, profile)
	if err != nil {
		log.Fatalf("failed to seed profile: %v", err)
	}

	fmt.Printf("seeded active user: id=%s email=%s name=%s\n", id, *email, *name)
}
