// Command main runs the demo data seeder for Hearth.
package main

import (
	"context"
	"flag"
	"log"

	"hearth/internal/cache"
	"hearth/internal/config"
	"hearth/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	friendsPerUser := flag.Int("friends", 3, "Friends per user")
	pending := flag.Int("pending", 2, "Pending friend requests per user")
	messages := flag.Int("messages", 10, "Messages per seeded conversation")
	shouldClean := flag.Bool("clean", true, "Remove existing data before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	log.Printf("Target: %d users, %d friends each, clean=%v", *numUsers, *friendsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production store")
	}

	ctx := context.Background()
	rdb, err := cache.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	summary, err := seed.NewSeeder(rdb, seed.Options{
		NumUsers:        *numUsers,
		FriendsPerUser:  *friendsPerUser,
		PendingRequests: *pending,
		MessagesPerChat: *messages,
		ShouldClean:     *shouldClean,
		Seed:            *randSeed,
	}).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d friendships, %d pending requests, %d messages",
		summary.Users, summary.Friendships, summary.PendingRequests, summary.Messages)
}
