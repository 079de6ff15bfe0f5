package main

import (
	"context"
	"errors"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/trailgraph"
	"github.com/meikuraledutech/trailgraph/postgres"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalw("connect", "error", err)
	}
	defer pool.Close()

	var store trailgraph.Store = postgres.New(pool)

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Trails (bulk) ─────────────────────────────────────────────────
	app.Post("/trails", func(c fiber.Ctx) error {
		var t trailgraph.Trail
		if err := c.Bind().JSON(&t); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		result, err := store.SaveTrail(c.Context(), &t)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(result)
	})

	app.Get("/trails/:id", func(c fiber.Ctx) error {
		t, err := store.GetTrail(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if t == nil {
			return c.Status(404).JSON(fiber.Map{"error": "trail not found"})
		}
		return c.JSON(t)
	})

	app.Delete("/trails/:id", func(c fiber.Ctx) error {
		if err := store.DeleteTrail(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Steps ─────────────────────────────────────────────────────────
	app.Post("/trails/:id/steps", func(c fiber.Ctx) error {
		var step trailgraph.StepRecord
		if err := c.Bind().JSON(&step); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AppendStep(c.Context(), c.Params("id"), step)
		if errors.Is(err, trailgraph.ErrTrailNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "trail not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/trails/:id/steps", func(c fiber.Ctx) error {
		steps, err := store.ListSteps(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(steps)
	})

	// ── Graph ─────────────────────────────────────────────────────────
	app.Get("/trails/:id/graph", func(c fiber.Ctx) error {
		trailID := c.Params("id")
		t, err := store.GetTrail(c.Context(), trailID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if t == nil {
			return c.Status(404).JSON(fiber.Map{"error": "trail not found"})
		}

		dag, diags, err := trailgraph.Reconstruct(t.Steps, t.StartNodeID)
		if errors.Is(err, trailgraph.ErrEmptySteps) || errors.Is(err, trailgraph.ErrMissingStartNode) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		for _, d := range diags {
			log.Warnw("reconstruction diagnostic",
				"trail", trailID, "code", d.Code, "step", d.StepOrder,
				"node", d.NodeID, "message", d.Message)
		}

		report := trailgraph.Validate(dag)
		for _, w := range report.Warnings {
			if w.Kind == trailgraph.WarnDeadEnds {
				continue
			}
			log.Warnw("validation warning",
				"trail", trailID, "kind", w.Kind, "count", w.Count, "message", w.Message)
		}

		if diags == nil {
			diags = []trailgraph.Diagnostic{}
		}
		return c.JSON(fiber.Map{
			"dag":         dag,
			"report":      report,
			"diagnostics": diags,
		})
	})

	log.Fatal(app.Listen(":3000"))
}
