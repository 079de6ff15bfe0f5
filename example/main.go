package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/trailgraph"
	"github.com/meikuraledutech/trailgraph/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store trailgraph.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Save a small branching trail ──────────────────────────────────
	trail := &trailgraph.Trail{
		ID:          "shore-leave",
		Title:       "Shore Leave on Risa",
		StartNodeID: "arrival",
		Steps: []trailgraph.StepRecord{
			{
				ContentRef: &trailgraph.ContentReference{
					TempNodeID: "arrival",
					Content: &trailgraph.StepContent{
						Text: "The shuttle touches down on the beach.",
						Choices: []trailgraph.Choice{
							{ID: "c1", Text: "Head to the resort", NextNodeID: "resort"},
							{ID: "c2", Text: "Explore the caves", NextNodeID: "caves"},
						},
					},
				},
				Metadata: &trailgraph.StepMetadata{OutgoingEdges: 2, LLMModel: "demo-model"},
			},
			{
				ContentRef: &trailgraph.ContentReference{
					TempNodeID: "resort",
					Content: &trailgraph.StepContent{
						Text: "The resort lobby is crowded.",
						Choices: []trailgraph.Choice{
							{ID: "c3", Text: "Meet the guide", NextNodeID: "sunset"},
						},
					},
				},
			},
			{
				ContentRef: &trailgraph.ContentReference{
					TempNodeID: "caves",
					Content: &trailgraph.StepContent{
						Text: "The caves glow with phosphorescent moss.",
						Choices: []trailgraph.Choice{
							{ID: "c4", Text: "Follow the light", NextNodeID: "sunset"},
						},
					},
				},
			},
			{
				ContentRef: &trailgraph.ContentReference{
					TempNodeID: "sunset",
					Content: &trailgraph.StepContent{
						Text:             "Both paths end at the same sunset.",
						ConvergencePoint: true,
					},
				},
			},
		},
	}

	if _, err := store.SaveTrail(ctx, trail); err != nil {
		log.Fatalf("save trail: %v", err)
	}
	fmt.Println("trail saved")

	// ── Load the steps back and rebuild the graph ─────────────────────
	stored, err := store.GetTrail(ctx, "shore-leave")
	if err != nil {
		log.Fatalf("get trail: %v", err)
	}

	dag, diags, err := trailgraph.Reconstruct(stored.Steps, stored.StartNodeID)
	if err != nil {
		log.Fatalf("reconstruct: %v", err)
	}
	fmt.Printf("\ngraph rebuilt: %d nodes, %d edges, %d diagnostics\n",
		len(dag.Nodes), len(dag.Edges), len(diags))
	printJSON(dag)

	// ── Validate ──────────────────────────────────────────────────────
	report := trailgraph.Validate(dag)
	fmt.Printf("\nvalidation (valid=%v):\n", report.Valid)
	printJSON(report)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteTrail(ctx, "shore-leave"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\ntrail deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
