// Package main provides a tool to seed the catalog with a demo author, novel and chapters.
//
// Configuration comes from the environment and .env, like the server.
//
// Usage:
//
//	DATA_PATH=~/ShadowNovel/data go run ./cmd/seed
//	DATA_PATH=~/ShadowNovel/data go run ./cmd/seed --chapters 25
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/di/providers"
	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/logger"
	"github.com/shadownovel/catalog/internal/service"
	"github.com/shadownovel/catalog/internal/validation"
)

var (
	username = flag.String("username", "leanderpaul", "Username of the demo author")
	password = flag.String("password", "Password@123", "Password of the demo author")
	chapters = flag.Int("chapters", 10, "Number of chapters to create")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	st, path, err := providers.OpenStore(cfg, lg.Component("store").Logger)
	if err != nil {
		lg.WithError(err).Fatal("failed to open store")
	}
	defer st.Close()

	fmt.Printf("Seeding %s store at: %s\n", cfg.Store.Driver, path)

	v := validation.New()
	users := service.NewUserService(st, v, auth.NewHasher(), lg.Component("catalog:user").Logger)
	novels := service.NewNovelService(st, v, cfg.Paging, lg.Component("catalog:novel").Logger)
	chapterSvc := service.NewChapterService(st, v, cfg.Paging, cfg.Chapters, lg.Component("catalog:chapter").Logger)

	ctx := context.Background()

	author, err := users.CreateUser(ctx, domain.NewUser{
		Username:  *username,
		FirstName: "Leander",
		LastName:  "Paul",
		Password:  *password,
	})
	switch {
	case domainerrors.ReasonOf(err) == domainerrors.ReasonUsernameTaken:
		fmt.Printf("User %s already exists, reusing it\n", *username)
		author, err = users.FindByUsername(ctx, *username)
		if err != nil {
			lg.WithError(err).WithField("username", *username).Fatal("failed to load user")
		}
	case err != nil:
		lg.WithError(err).WithField("username", *username).Fatal("failed to create user")
	default:
		fmt.Printf("Created user %s (%s)\n", author.Username, author.UID)
	}

	novel, err := novels.CreateNovel(ctx, domain.NewNovel{
		Title:    "A Test Novel",
		AuthorID: author.UID,
		Description: []domain.ContentBlock{
			{Tag: domain.BlockStrong, Text: "A demo novel."},
			{Tag: domain.BlockParagraph, Text: "Seeded for local development."},
		},
		Status: domain.StatusOngoing,
		Genre:  domain.GenreFantasy,
		Tags:   []domain.Tag{domain.TagAction, domain.TagAdventure},
	}, true)
	if err != nil {
		lg.WithError(err).Fatal("failed to create novel")
	}
	fmt.Printf("Created novel %q (%s)\n", novel.Title, novel.NID)

	vid := novel.Volumes[0].VID
	for n := 1; n <= *chapters; n++ {
		ch, err := chapterSvc.CreateChapter(ctx, domain.NewChapter{
			NID:   novel.NID,
			VID:   vid,
			Title: fmt.Sprintf("Chapter %d", n),
			Content: []domain.ContentBlock{
				{Text: fmt.Sprintf("The story continues in part %d.", n)},
			},
		})
		if err != nil {
			lg.WithError(err).WithField("nid", novel.NID).Fatal("failed to create chapter", "chapter", n)
		}
		fmt.Printf("  [%d] %s (%s)\n", ch.Index, ch.Title, ch.CID)
	}

	err = users.UpdateUser(ctx, author.Username, domain.UserUpdate{}, &domain.LibraryOp{
		Operation: domain.LibraryAdd,
		NID:       novel.NID,
	})
	if err != nil {
		lg.WithError(err).WithField("nid", novel.NID).Fatal("failed to add novel to library")
	}

	fmt.Println("\nSeeding complete!")
}
