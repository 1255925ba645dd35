package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"qazna.org/internal/config"
	"qazna.org/internal/migrate"
	"qazna.org/internal/store/sqlite"
)

func main() {
	log.SetFlags(0)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	var (
		dbPath         = flag.String("db", cfg.DatabasePath, "path to the SQLite database file")
		migrationsPath = flag.String("migrations", "migrations", "path to SQL migrations")
		seedsPath      = flag.String("seeds", "", "path to SQL seeds")
	)
	flag.Parse()

	if *dbPath == "" {
		*dbPath = "qazna-identity.db"
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer st.Close()

	mgr := migrate.NewManager(st.DB(), *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
