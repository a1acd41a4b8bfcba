package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"headshot/internal/catalog"
	"headshot/internal/domain"
	"headshot/internal/generation"
	"headshot/internal/infra"
	"headshot/internal/providers/genai"
	"headshot/internal/providers/image"
	"headshot/internal/storage"
)

// generate runs one request against local files and prints the event stream
// as JSON lines. Results land under -out.
func main() {
	var (
		imagesFlag  string
		stylesFlag  string
		modeFlag    string
		primaryFlag int
		refFlag     string
		yearFlag    int
		angleFlag   string
		aspectFlag  string
		outFlag     string
		listFlag    bool
	)
	flag.StringVar(&imagesFlag, "images", "", "comma separated profile image paths")
	flag.StringVar(&stylesFlag, "styles", "professional", "comma separated style ids")
	flag.StringVar(&modeFlag, "mode", "single", "face mode: single, mix or multiAngle")
	flag.IntVar(&primaryFlag, "primary", 0, "primary image index for single mode")
	flag.StringVar(&refFlag, "ref", "", "optional style reference image path")
	flag.IntVar(&yearFlag, "year", time.Now().Year(), "photographic era")
	flag.StringVar(&angleFlag, "angle", "", "target angle for multiAngle mode")
	flag.StringVar(&aspectFlag, "aspect", domain.DefaultAspectRatio, "output aspect ratio")
	flag.StringVar(&outFlag, "out", "./out", "directory for generated images")
	flag.BoolVar(&listFlag, "list", false, "print the style catalog and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fail(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).Output(os.Stderr)

	styles, err := catalog.Load(cfg.StyleCatalogPath)
	if err != nil {
		fail(err)
	}
	if listFlag {
		for _, s := range styles.All() {
			fmt.Printf("%-14s %s\n", s.ID, s.DisplayName)
		}
		return
	}

	mode, err := domain.ParseFaceMode(modeFlag)
	if err != nil {
		fail(err)
	}
	angle, err := domain.ParseTargetAngle(angleFlag)
	if err != nil {
		fail(err)
	}
	var images []domain.ImageBlob
	for _, p := range splitList(imagesFlag) {
		blob, err := loadImage(p)
		if err != nil {
			fail(err)
		}
		images = append(images, blob)
	}
	var ref *domain.ImageBlob
	if strings.TrimSpace(refFlag) != "" {
		blob, err := loadImage(refFlag)
		if err != nil {
			fail(err)
		}
		ref = &blob
	}

	req, err := domain.NewGenerationRequest(domain.RequestParams{
		ID:           uuid.NewString(),
		Images:       images,
		StyleIDs:     splitList(stylesFlag),
		FaceMode:     mode,
		PrimaryIndex: primaryFlag,
		Reference:    ref,
		Year:         yearFlag,
		TargetAngle:  angle,
		AspectRatio:  aspectFlag,
		MaxImages:    cfg.MaxProfileImages,
	}, styles)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outDir, err := filepath.Abs(outFlag)
	if err != nil {
		fail(err)
	}
	files, err := storage.NewFileStore(outDir)
	if err != nil {
		fail(err)
	}
	results := storage.NewResultStore(files, outDir, 24*time.Hour, logger)

	client, err := genai.NewClient(ctx, genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
		Logger:  &logger,
	})
	if err != nil {
		fail(err)
	}
	orch := generation.New(styles, image.NewGeminiGenerator(client), results, generation.Options{
		MinInterval: cfg.GenerationPacing,
		Logger:      &logger,
	})

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	err = orch.Run(ctx, req, func(e domain.Event) error {
		if e.Type == domain.EventError {
			failed++
		}
		return enc.Encode(e)
	})
	if err != nil {
		fail(err)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

func loadImage(path string) (domain.ImageBlob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageBlob{}, err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return domain.ImageBlob{}, fmt.Errorf("%w: %s is %s", domain.ErrUnsupportedMedia, path, mime)
	}
	return domain.ImageBlob{Name: filepath.Base(path), MIMEType: mime, Path: path, Size: int64(len(data)), Data: data}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "generate:", err)
	os.Exit(1)
}
