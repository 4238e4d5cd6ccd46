// Command main runs the database seeder for devHabit.
package main

import (
	"context"
	"flag"
	"log"

	"devhabit/internal/config"
	"devhabit/internal/database"
	"devhabit/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numGoals := flag.Int("goals", 3, "Number of goals per user")
	numResources := flag.Int("resources", 2, "Number of resources per goal")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d goals each, %d resources per goal, clean=%v\n",
		*numUsers, *numGoals, *numResources, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.Demo(context.Background(), seed.SeedOptions{
		Users:            *numUsers,
		GoalsPerUser:     *numGoals,
		ResourcesPerGoal: *numResources,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done! Created %d users.\n", len(users))
	log.Printf("All test users have the password: %s\n", seed.DemoPassword)
}
