package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS daily_stats CASCADE`,
		`DROP TABLE IF EXISTS read_logs CASCADE`,
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'READER',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Create articles table with soft delete support
		`CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			author_id UUID NOT NULL REFERENCES users(id),
			title VARCHAR(150) NOT NULL,
			content TEXT NOT NULL,
			category VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		// Create read_logs table, the raw per-read event stream
		`CREATE TABLE IF NOT EXISTS read_logs (
			id BIGSERIAL PRIMARY KEY,
			article_id UUID NOT NULL REFERENCES articles(id),
			reader_id UUID REFERENCES users(id),
			read_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Create daily_stats table keyed by article and day
		`CREATE TABLE IF NOT EXISTS daily_stats (
			id BIGSERIAL PRIMARY KEY,
			article_id UUID NOT NULL REFERENCES articles(id),
			stat_date DATE NOT NULL,
			view_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(article_id, stat_date)
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
		`CREATE INDEX IF NOT EXISTS idx_read_logs_article_read_at ON read_logs(article_id, read_at)`,
		`CREATE INDEX IF NOT EXISTS idx_read_logs_reader_article ON read_logs(reader_id, article_id, read_at) WHERE reader_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_daily_stats_article_id ON daily_stats(article_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	query := `
		INSERT INTO users (email, name, password_hash, role) VALUES
		('author@example.com', 'Demo Author', $1, 'AUTHOR'),
		('reader@example.com', 'Demo Reader', $1, 'READER')
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			updated_at = NOW()
	`

	if _, err := conn.Exec(ctx, query, string(hash)); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	fmt.Println("  Seeded 2 users (author@example.com / reader@example.com, password: Password123)")

	articleQuery := `
		INSERT INTO articles (author_id, title, content, category, status)
		SELECT u.id,
			'Getting Started with Articly',
			'This sample article exists so the feed has something to show after a fresh setup. It is long enough to satisfy the minimum content length required for publishing.',
			'general',
			'PUBLISHED'
		FROM users u
		WHERE u.email = 'author@example.com'
		AND NOT EXISTS (SELECT 1 FROM articles WHERE title = 'Getting Started with Articly')
	`

	if _, err := conn.Exec(ctx, articleQuery); err != nil {
		return fmt.Errorf("failed to seed articles: %w", err)
	}

	fmt.Println("  Seeded 1 published article")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
