// Command seed fills the database with randomized demo incidents. It
// runs pending migrations first and replaces any existing rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"

	"github.com/oncallhub/incident-desk/internal/config"
	"github.com/oncallhub/incident-desk/internal/domain"
	"github.com/oncallhub/incident-desk/internal/pkg/postgres"
)

var services = []string{
	"API Gateway",
	"Auth Service",
	"Payment Processor",
	"Database",
	"Cache Layer",
	"Load Balancer",
	"Message Queue",
	"Search Engine",
	"Email Service",
	"Notification Hub",
}

var titles = []string{
	"API timeout errors",
	"Database connection pool exhausted",
	"Memory leak in background service",
	"SSL certificate expiration warning",
	"High latency detected",
	"Increased error rate",
	"Payment processing delays",
	"Notification delivery failures",
	"Search index corruption",
	"Cache invalidation issue",
}

var summaries = []string{
	"The service is experiencing intermittent failures. Root cause analysis in progress.",
	"Traffic spike detected. Scaling up resources to handle increased load.",
	"Database queries timing out. Query optimization needed.",
	"Third-party service dependency is degraded. Waiting for vendor resolution.",
	"Configuration change caused unexpected behavior. Rolling back changes.",
	"Resource limit reached. Need to provision additional infrastructure.",
	"Suspicious activity detected in logs. Security team investigating.",
	"Customer complaints about feature unavailability. Engineering team on it.",
}

var severities = []domain.Severity{
	domain.SeveritySev1, domain.SeveritySev2, domain.SeveritySev3, domain.SeveritySev4,
}

var statuses = []domain.Status{
	domain.StatusOpen, domain.StatusMitigated, domain.StatusResolved,
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	migrationsPath := flag.String("migrations", "migrations", "path to migrations directory")
	count := flag.Int("count", 200, "number of incidents to seed")
	flag.Parse()

	if err := run(*configPath, *migrationsPath, *count); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, migrationsPath string, count int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	migrator, err := migrate.New("file://"+migrationsPath, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(ctx, "DELETE FROM incidents"); err != nil {
		return fmt.Errorf("clear incidents: %w", err)
	}

	slog.Info("seeding incidents", "count", count)

	for i := 0; i < count; i++ {
		incident := generateIncident(i)
		_, err := db.Exec(ctx, `
			INSERT INTO incidents (id, title, service, severity, status, owner, summary, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			incident.ID,
			incident.Title,
			incident.Service,
			incident.Severity,
			incident.Status,
			incident.Owner,
			incident.Summary,
			incident.CreatedAt,
			incident.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert incident %d: %w", i, err)
		}
	}

	var total int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM incidents").Scan(&total); err != nil {
		return fmt.Errorf("verify seed: %w", err)
	}

	slog.Info("seed complete", "incidents", total)
	return nil
}

func generateIncident(index int) *domain.Incident {
	now := time.Now().UTC()
	createdAt := now.Add(-time.Duration(rand.IntN(90*24)) * time.Hour)
	updatedAt := createdAt.Add(time.Duration(rand.IntN(30*24)) * time.Hour)

	var owner *string
	if rand.Float64() > 0.3 {
		o := fmt.Sprintf("engineer-%d", rand.IntN(20)+1)
		owner = &o
	}

	summary := summaries[rand.IntN(len(summaries))]

	return &domain.Incident{
		ID:        uuid.New().String(),
		Title:     fmt.Sprintf("%s #%d", titles[index%len(titles)], index),
		Service:   services[rand.IntN(len(services))],
		Severity:  severities[rand.IntN(len(severities))],
		Status:    statuses[rand.IntN(len(statuses))],
		Owner:     owner,
		Summary:   &summary,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
