// Command main fills the database with demo users, communities and reply trees.
package main

import (
	"context"
	"flag"
	"log"

	"threadline/internal/bootstrap"
	"threadline/internal/config"
	"threadline/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.NumCommunities, "communities", opts.NumCommunities, "Number of communities to create")
	flag.IntVar(&opts.NumThreads, "threads", opts.NumThreads, "Number of root threads to create")
	flag.IntVar(&opts.MaxReplyDepth, "depth", opts.MaxReplyDepth, "Longest reply chain under a root")
	flag.IntVar(&opts.LikeRatio, "like-ratio", opts.LikeRatio, "Percent chance a user likes a root")
	flag.Int64Var(&opts.Factory.Seed, "seed", 0, "Random seed (0 = time based)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	s := seed.NewSeeder(rt.DB, opts)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d communities, %d threads, %d replies, %d likes",
		len(res.Users), len(res.Communities), len(res.Roots), res.Replies, res.Likes)
}
