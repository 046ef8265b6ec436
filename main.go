package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/luismavs/exposurestats/config"
	"github.com/luismavs/exposurestats/database"
	"github.com/luismavs/exposurestats/exposure"
	"github.com/luismavs/exposurestats/handlers"
	"github.com/luismavs/exposurestats/media"
	"github.com/luismavs/exposurestats/realtime"
	"github.com/luismavs/exposurestats/repository"
	"github.com/luismavs/exposurestats/services"
	"github.com/luismavs/exposurestats/utils"
	"github.com/luismavs/exposurestats/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "exposurestats",
		Short: "Photo statistics from Exposure sidecar files",
		Long:  "Scans an Exposure photo library, normalizes the sidecar metadata and serves statistics over HTTP.",
	}
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(syncCommand())
	rootCmd.AddCommand(keywordsCommand())
	rootCmd.AddCommand(tagCommand())
	rootCmd.AddCommand(initDBCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	return &cfg
}

func openStore(cfg *config.Config) *gorm.DB {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create database directory %s: %v", dir, err)
		}
	}
	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	return db
}

// buildAndStore runs the full pipeline once and persists the result.
func buildAndStore(ctx context.Context, cfg *config.Config, repo repository.LibraryRepositoryInterface) (*exposure.Library, error) {
	builder := exposure.NewBuilder(cfg)
	lib, err := builder.BuildLibrary(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceLibrary(lib.Entries); err != nil {
		return nil, err
	}
	return lib, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the library and serve the statistics API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			storagePaths := []string{cfg.PreviewsPath, cfg.ExportsPath}
			for _, p := range storagePaths {
				log.Printf("Ensuring storage directory exists: %s", p)
				if err := os.MkdirAll(p, 0755); err != nil {
					log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
				}
			}

			db := openStore(cfg)
			libraryRepo := repository.NewLibraryRepository(db)
			tagRepo := repository.NewTagRepository(db)

			sqlDB, err := db.DB()
			if err != nil {
				log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
			}

			mediaSubDirs := map[media.AssetType]string{
				media.AssetTypePreview: filepath.Base(cfg.PreviewsPath),
				media.AssetTypeExport:  filepath.Base(cfg.ExportsPath),
			}
			mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
			if err != nil {
				log.Fatalf("FATAL: Failed to initialize media store: %v", err)
			}
			mediaProcessor := media.NewProcessor(mediaStore)

			hub := realtime.NewHub()
			go hub.Run()

			var tagProcessor *workers.TagProcessor
			if os.Getenv("GEMINI_API_KEY") != "" {
				tagger, err := services.NewAITagger(cmd.Context(), cfg, tagRepo)
				if err != nil {
					log.Fatalf("FATAL: Failed to initialize AI tagger: %v", err)
				}
				tagProcessor = workers.NewTagProcessor(cfg, tagger, mediaProcessor, hub, cfg.TagQueueSize, cfg.NumTagWorkers)
				defer tagProcessor.Stop()
			} else {
				log.Println("GEMINI_API_KEY not set, AI tagging disabled")
			}

			builder := exposure.NewBuilder(cfg)
			libraryHandler := handlers.NewLibraryHandler(cfg, builder, libraryRepo, sqlDB, hub)
			libraryHandler.TagProcessor = tagProcessor
			exifHandler := handlers.NewExifHandler(cfg)

			log.Printf("Scanning library at: %s", cfg.LibraryPath)
			lib, err := builder.BuildLibrary(cmd.Context())
			if err != nil {
				log.Fatalf("FATAL: Initial library build failed: %v", err)
			}
			if err := libraryRepo.ReplaceLibrary(lib.Entries); err != nil {
				log.Fatalf("FATAL: Failed to persist library: %v", err)
			}
			libraryHandler.SetLibrary(lib)

			r := chi.NewRouter()

			corsOptions := cors.Options{
				AllowedOrigins:   []string{getEnvOrDefault("CORS_ORIGIN", "http://localhost:5173")},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
				ExposedHeaders:   []string{"Link"},
				AllowCredentials: true,
				MaxAge:           300,
			}
			corsHandler := cors.New(corsOptions)

			r.Use(middleware.RequestID)
			r.Use(middleware.RealIP)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(corsHandler.Handler)

			r.Route("/api", func(r chi.Router) {
				r.Get("/library", libraryHandler.GetLibrary)
				r.Get("/cameras", libraryHandler.GetCameras)
				r.Get("/lenses", libraryHandler.GetLenses)
				r.Get("/keywords", libraryHandler.GetKeywords)
				r.Get("/stats", libraryHandler.GetStats)
				r.Get("/stats/cameras", libraryHandler.GetCameraStats)
				r.Get("/stats/lenses", libraryHandler.GetLensStats)
				r.Get("/stats/keywords", libraryHandler.GetKeywordStats)
				r.Get("/stats/dates", libraryHandler.GetDateStats)
				r.Get("/stats/focal-lengths", libraryHandler.GetFocalLengthStats)
				r.Post("/sync", libraryHandler.TriggerSync)
				r.Get("/photos/exif", exifHandler.GetPhotoExif)
				r.Post("/photos/tag", libraryHandler.TagPhoto)
			})

			previewSubDir := filepath.Base(cfg.PreviewsPath)
			r.Get(fmt.Sprintf("/%s/*", previewSubDir), handlers.AssetServer(cfg.MediaStoragePath, previewSubDir))

			exportSubDir := filepath.Base(cfg.ExportsPath)
			r.Get(fmt.Sprintf("/%s/*", exportSubDir), handlers.AssetServer(cfg.MediaStoragePath, exportSubDir))

			r.Get("/ws", hub.ServeWS)

			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			serverAddr := ":" + port
			log.Printf("Server listening on %s", serverAddr)
			server := &http.Server{
				Addr:         serverAddr,
				Handler:      r,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}
			return server.ListenAndServe()
		},
	}
}

func syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Build the library once and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			db := openStore(cfg)
			repo := repository.NewLibraryRepository(db)

			lib, err := buildAndStore(cmd.Context(), cfg, repo)
			if err != nil {
				return fmt.Errorf("library sync failed: %w", err)
			}

			log.Printf("Synced %d photos (%d cameras, %d lenses)", len(lib.Entries), len(lib.Cameras), len(lib.Lenses))
			out, err := json.MarshalIndent(lib.Stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func keywordsCommand() *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Export keyword counts to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			builder := exposure.NewBuilder(cfg)
			lib, err := builder.BuildLibrary(cmd.Context())
			if err != nil {
				return fmt.Errorf("library build failed: %w", err)
			}

			path, err := utils.WriteKeywordsCSV(lib.Keywords, cfg.ExportsPath)
			if err != nil {
				return err
			}
			fmt.Println(path)

			if archive {
				zipPath, size, err := utils.CreateExportArchive(cfg.ExportsPath, cfg.ExportsPath)
				if err != nil {
					return err
				}
				log.Printf("Export archive: %s (%d bytes)", zipPath, size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", false, "also zip the exports directory")
	return cmd
}

func tagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <photo>",
		Short: "Ask the vision model for keywords for one photo",
		Long:  "Tags a single photo with the configured Gemini model. The argument is a path relative to the library root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			db := openStore(cfg)
			tagRepo := repository.NewTagRepository(db)

			tagger, err := services.NewAITagger(cmd.Context(), cfg, tagRepo)
			if err != nil {
				return err
			}

			tags, err := tagger.TagImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Println(tag)
			}
			return nil
		},
	}
}

func initDBCommand() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create (or reset) the analytical store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			db, err := database.InitGormDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			if drop {
				if err := database.DropModels(db); err != nil {
					return err
				}
			}
			return database.AutoMigrateModels(db)
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop existing tables first")
	return cmd
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
