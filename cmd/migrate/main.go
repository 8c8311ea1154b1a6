package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"stayvista.app/internal/config"
	"stayvista.app/internal/migrate"
	"stayvista.app/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn       = flag.String("dsn", os.Getenv(config.EnvPrefix+"PG_DSN"), "PostgreSQL DSN")
		seedsPath = flag.String("seeds", "ops/seeds", "Path to SQL seeds")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatalf("missing DSN: provide via -dsn or %sPG_DSN", config.EnvPrefix)
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()
	db := store.DB()

	switch flag.Arg(0) {
	case "up":
		err = pg.MigrateUp(ctx, db)
	case "down":
		err = pg.MigrateDown(ctx, db)
	case "seed":
		var applied []string
		applied, err = migrate.NewSeeder(db, os.DirFS(*seedsPath)).Seed(ctx)
		for _, name := range applied {
			fmt.Println("seeded", name)
		}
	case "status":
		var v int64
		v, err = pg.MigrationVersion(ctx, db)
		if err == nil {
			fmt.Printf("schema version %d\n", v)
			var seeds []string
			seeds, err = migrate.NewSeeder(db, nil).Applied(ctx)
			for _, name := range seeds {
				fmt.Println("seed", name)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
