// Package main provides a tool that compares every novel's stored chapter counters
// with the chapters actually on record.
//
// Usage:
//
//	DATA_PATH=~/ShadowNovel/data go run ./cmd/dbinspect
//	DATA_PATH=~/ShadowNovel/data go run ./cmd/dbinspect --fix
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/di/providers"
	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/logger"
	"github.com/shadownovel/catalog/internal/service"
	"github.com/shadownovel/catalog/internal/store"
	"github.com/shadownovel/catalog/internal/validation"
)

var fix = flag.Bool("fix", false, "Overwrite drifted counters with recomputed values")

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

	novels := service.NewNovelService(st, validation.New(), cfg.Paging, lg.Component("catalog:novel").Logger)
	ctx := context.Background()

	fmt.Println("=== Counter Inspection ===")
	fmt.Printf("Store: %s (%s)\n\n", cfg.Store.Driver, path)

	var checked, drifted, fixed int
	page := store.PageRequest{Limit: cfg.Paging.MaxLimit}
	for {
		result, err := novels.FindNovels(ctx, store.NovelQuery{}, page,
			domain.NovelFieldNID, domain.NovelFieldTitle)
		if err != nil {
			lg.WithError(err).Fatal("failed to list novels")
		}

		for _, n := range result.Items {
			checked++
			d, err := novels.InspectCounters(ctx, n.NID)
			if err != nil {
				lg.WithError(err).WithField("nid", n.NID).Error("failed to inspect counters")
				continue
			}
			if !d.Drifted() {
				continue
			}

			drifted++
			fmt.Printf("%s %q: stored %d, actual %d\n", n.NID, n.Title, d.Stored, d.Actual)
			for _, vd := range d.Volumes {
				fmt.Printf("    volume %s: stored %d, actual %d\n", vd.VID, vd.Stored, vd.Actual)
			}

			if *fix {
				if _, err := novels.ReconcileCounters(ctx, n.NID); err != nil {
					lg.WithError(err).WithField("nid", n.NID).Error("failed to reconcile counters")
					continue
				}
				fixed++
			}
		}

		page.Offset += len(result.Items)
		if len(result.Items) == 0 || int64(page.Offset) >= result.TotalCount {
			break
		}
	}

	fmt.Printf("\nNovels checked: %d\n", checked)
	fmt.Printf("Novels with drifted counters: %d\n", drifted)
	if *fix {
		fmt.Printf("Novels reconciled: %d\n", fixed)
	} else if drifted > 0 {
		fmt.Println("Run with --fix to reconcile them.")
	}
}
