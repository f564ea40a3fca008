package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pomopals/pomopals/go/internal/dbconfig"
)

// Room mirrors the seed JSON structure
type Room struct {
	Name         string  `json:"name"`
	WorkMinutes  int     `json:"work_minutes"`
	BreakMinutes int     `json:"break_minutes"`
	Theme        *string `json:"theme"`
}

func main() {
	// 1) Load the JSON snapshot
	data, err := os.ReadFile("go/internal/assets/rooms.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var rooms []Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(rooms)
		inserted int
		skipped  int
		errs     int
	)

	for _, r := range rooms {
		workMinutes := r.WorkMinutes
		if workMinutes <= 0 {
			workMinutes = 25
		}
		breakMinutes := r.BreakMinutes
		if breakMinutes <= 0 {
			breakMinutes = 5
		}

		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO rooms (
              name, workminutes, breakminutes, running, theme
            ) VALUES (
              $1,$2,$3,false,$4
            )
            ON CONFLICT (name) DO NOTHING
        `,
			r.Name, workMinutes, breakMinutes, r.Theme,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting room %s: %v\n", r.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Rooms seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
