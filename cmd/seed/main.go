// Command seed loads a YAML fixture file into a seotrack database.
//
// Usage:
//
//	seed -db seotrack.db -file fixtures/demo.yaml
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/rankwise/seotrack/internal/seed"
	"github.com/rankwise/seotrack/internal/store"
)

func main() {
	dbPath := flag.String("db", "seotrack.db", "path to the sqlite database")
	file := flag.String("file", "fixtures/demo.yaml", "path to the fixture YAML")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	fixture, err := seed.Load(*file)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("failed to load fixture")
	}

	db, err := store.New(*dbPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("db", *dbPath).Msg("failed to open store")
	}
	defer db.Close()

	seeder := seed.New(db, logger)
	if err := seeder.Apply(fixture); err != nil {
		logger.Fatal().Err(err).Msg("seeding failed")
	}

	logger.Info().Int("tasks", len(fixture.Tasks)).Msg("seeding complete")
}
