package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamathecxder/randomail"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/config"
	"github.com/UnknownOlympus/athena/internal/lib/logger/sl"
	"github.com/UnknownOlympus/athena/internal/models"
	"github.com/UnknownOlympus/athena/internal/repository"
	"github.com/UnknownOlympus/athena/internal/services/employees"
)

var (
	firstNames = []string{"Olena", "Taras", "Iryna", "Mykola", "Sofia", "Andrii", "Kateryna", "Bohdan", "Daryna", "Yurii"}
	lastNames  = []string{"Shevchenko", "Kovalenko", "Bondarenko", "Tkachenko", "Kravchenko", "Melnyk", "Boyko", "Oliynyk"}
	positions  = map[models.Department][]string{
		models.DepartmentEngineering: {"Software Engineer", "Site Reliability Engineer", "Engineering Manager"},
		models.DepartmentMarketing:   {"Content Strategist", "Marketing Analyst"},
		models.DepartmentSales:       {"Account Executive", "Sales Development Representative"},
		models.DepartmentHR:          {"Recruiter", "HR Business Partner"},
		models.DepartmentFinance:     {"Accountant", "Financial Analyst"},
		models.DepartmentOperations:  {"Operations Coordinator", "Office Manager"},
	}
)

// main fills the configured record store with generated employees. Every record goes through
// the same validation as an API create request.
func main() {
	count := flag.Int("n", 25, "number of employees to generate") //nolint:mnd // default seed size
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := newLogger()

	store, err := repository.Open(cfg, logger, nil)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()

	staff := employees.NewStaff(logger, store.Employees, nil)

	created := 0
	for i := 0; i < *count && ctx.Err() == nil; i++ {
		employee, createErr := staff.Create(ctx, randomRecord())
		if createErr != nil {
			resp := apperror.Classify(createErr, apperror.Options{})
			logger.WarnContext(ctx, "Skipped generated employee",
				"status", resp.Status, "message", resp.Message, "errors", resp.Errors, sl.Err(createErr))
			continue
		}
		created++
		logger.DebugContext(ctx, "Employee seeded", "id", employee.ID, "email", employee.Email)
	}

	logger.InfoContext(ctx, "Seeding finished", "requested", *count, "created", created)
}

func randomRecord() models.Record {
	departments := models.Departments()
	department := departments[rand.IntN(len(departments))]
	statuses := models.Statuses()
	hireDate := time.Now().AddDate(0, 0, -rand.IntN(10*365)) //nolint:mnd // up to ten years back

	return models.Record{
		"firstName":  pick(firstNames),
		"lastName":   pick(lastNames),
		"email":      randomail.GenerateRandomEmail(),
		"phone":      fmt.Sprintf("+380%09d", rand.IntN(1_000_000_000)),
		"department": string(department),
		"position":   pick(positions[department]),
		"salary":     float64(30_000 + rand.IntN(120_000)),
		"hireDate":   hireDate.Format(time.DateOnly),
		"status":     string(statuses[rand.IntN(len(statuses))]),
	}
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
