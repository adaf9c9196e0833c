package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/basel-ax/avatargen/internal/catalog"
	"github.com/basel-ax/avatargen/internal/config"
	"github.com/basel-ax/avatargen/internal/domain"
	"github.com/basel-ax/avatargen/internal/repository"
	"github.com/basel-ax/avatargen/internal/service"
	"github.com/basel-ax/avatargen/internal/session"
	"github.com/basel-ax/avatargen/internal/web"
)

const defaultPrompt = "A person who loves to read books."

// stringList collects a repeatable flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	// Parse command line flags
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	serve := flag.Bool("serve", false, "Run the HTTP form host instead of a single generation")
	prompt := flag.String("prompt", defaultPrompt, "Describe what kind of image you want")
	resolution := flag.String("resolution", string(domain.Resolution1024x1024), "Image size: 1024x1024, 1792x1024 or 1024x1792")
	var attrs, accessories, excludes stringList
	flag.Var(&attrs, "attr", "Attribute selection as key=value (repeatable)")
	flag.Var(&accessories, "accessory", "Accessory to include (repeatable)")
	flag.Var(&excludes, "exclude", "Attribute key to leave out of the prompt (repeatable)")
	flag.Parse()

	// Configure logging
	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Verbose logging enabled")
	} else {
		log.SetFlags(log.Ldate | log.Ltime)
	}

	log.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	log.Printf("Loading attribute catalog from %s...", cfg.CatalogPath)
	attrCatalog, catalogErr := catalog.Load(cfg.CatalogPath)
	if catalogErr != nil {
		log.Printf("Error loading attribute catalog: %v", catalogErr)
	}

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	history, closeDB, err := openHistory(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	sink := repository.NewFileImageSink(cfg.OutputDir)
	if err := sink.EnsureDir(); err != nil {
		log.Fatalf("Failed to prepare output directory: %v", err)
	}

	avatars := service.NewAvatarService(
		attrCatalog,
		service.NewImageGenerationService(cfg),
		sink,
		service.WithHistory(history),
		service.WithRateLimit(cfg.GenerationsPerMinute),
	)

	if *serve {
		retention := service.NewRetentionService(sink, history, cfg.OutputRetention)
		if err := runServer(ctx, cfg, avatars, retention, catalogErr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		log.Println("Shutting down gracefully...")
		return
	}

	if catalogErr != nil {
		log.Fatalf("Generation unavailable: %v", catalogErr)
	}

	sel, err := parseSelection(attrs, accessories)
	if err != nil {
		log.Fatalf("Invalid selection: %v", err)
	}

	var policy domain.InclusionPolicy = domain.IncludeAll
	if len(excludes) > 0 {
		toggles := domain.Toggles{}
		for _, key := range excludes {
			if _, ok := domain.LookupAttribute(key); !ok {
				log.Fatalf("Invalid selection: unknown attribute %q", key)
			}
			toggles[key] = false
		}
		policy = toggles
	}

	req := domain.NewGenerationRequest(*prompt, domain.Resolution(*resolution), sel.WithDefaults(attrCatalog), policy)
	img, err := avatars.Generate(ctx, session.New(cfg.OpenAIAPIKey), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", domain.KindOf(err), err)
		os.Exit(1)
	}

	fmt.Printf("Image URL: %s\n", img.URL)
	fmt.Printf("Revised Prompt: %s\n", img.RevisedPrompt)
	fmt.Printf("Image saved to: %s\n", img.Path)
}

func parseSelection(attrs, accessories []string) (domain.FieldSelection, error) {
	sel := domain.FieldSelection{Values: map[string]string{}, Accessories: accessories}
	for _, kv := range attrs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return sel, fmt.Errorf("expected key=value, got %q", kv)
		}
		sel.Values[key] = value
	}
	return sel, nil
}

// openHistory connects the generation history database when one is configured
func openHistory(ctx context.Context, cfg *config.Config) (repository.GenerationRepository, func(), error) {
	if !cfg.DB.Enabled() {
		return repository.NopGenerationRepository{}, func() {}, nil
	}

	log.Println("Initializing database connection...")
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	repo := repository.NewPostgresGenerationRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate generations table: %w", err)
	}
	log.Println("Database connection established")

	return repo, func() { db.Close() }, nil
}

func runServer(ctx context.Context, cfg *config.Config, avatars *service.AvatarService, retention *service.RetentionService, catalogErr error) error {
	sessions := session.NewStore(cfg.SessionTTL)
	handlers := web.NewHandlers(avatars, sessions, catalogErr)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3*cfg.HTTPTimeout + 30*time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if retention.Enabled() {
		g.Go(func() error {
			return runRetention(ctx, cfg.PruneSchedule, retention)
		})
	}

	return g.Wait()
}

func runRetention(ctx context.Context, schedule string, retention *service.RetentionService) error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(schedule, func() {
		log.Println("[CRON] Running output retention...")
		if err := retention.Prune(ctx, time.Now()); err != nil {
			log.Printf("[CRON] Error pruning output: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling retention: %w", err)
	}

	c.Start()
	log.Println("Cron scheduler started successfully")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Cron scheduler stopped")
	return nil
}
