package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/moodhaven/moodhaven/config"
	"github.com/moodhaven/moodhaven/internal/domain/entity"
	"github.com/moodhaven/moodhaven/pkg/helpers"
)

// Seeds a demo account with a week of mood history so the log views have
// something to show on a fresh database.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@moodhaven.dev"
	password := "password123"
	name := "Demo User"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)

	// A week of emotions ending today, one per day.
	moods := []entity.Emotion{
		entity.EmotionNeutral, entity.EmotionSad, entity.EmotionStressed,
		entity.EmotionAnxious, entity.EmotionHappy, entity.EmotionNeutral,
		entity.EmotionHappy,
	}
	now := time.Now()
	entries := make([]entity.EmotionEntry, 0, len(moods))
	for i, m := range moods {
		ts := now.AddDate(0, 0, i-len(moods)+1)
		entries = append(entries, entity.EmotionEntry{Timestamp: ts.UTC(), Emotion: m})
	}
	emotionsJSON, err := json.Marshal(entries)
	if err != nil {
		log.Fatalf("failed to marshal emotions: %v", err)
	}

	last := entries[len(entries)-1].Timestamp
	if _, err := db.Exec(`
		UPDATE users
		SET emotions = $1::jsonb,
		    tasks = ARRAY[$2, $3],
		    completed_tasks = ARRAY[$4],
		    streak = $5,
		    last_emotion_date = $6,
		    updated_at = now()
		WHERE id = $7
	`, string(emotionsJSON),
		"Celebrate your achievements", "Spend time with loved ones",
		"Journal your thoughts",
		len(moods), last, id); err != nil {
		log.Fatalf("failed to seed history: %v", err)
	}
	fmt.Printf("seeded %d emotions, streak=%d\n", len(entries), len(moods))
}
