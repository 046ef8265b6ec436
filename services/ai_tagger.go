package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/luismavs/exposurestats/config"
	"github.com/luismavs/exposurestats/media"
	"github.com/luismavs/exposurestats/repository"
)

var ErrInvalidTagResponse = errors.New("tagger: invalid JSON from model")

// TagResponse is the structured answer expected from the vision model.
type TagResponse struct {
	Explanation    string   `json:"explanation"`
	Tags           []string `json:"tags"`
	AdditionalTags []string `json:"additional_tags"`
}

// SystemPrompt builds the tagging instructions around the configured
// keyword vocabulary.
func SystemPrompt(tags []string) string {
	var b strings.Builder
	b.WriteString("You are an agent specialized in tagging photographs.\n\n")
	b.WriteString("You will be provided with an image, and your goal is to tag the depicted scene with keywords.\n")
	b.WriteString("You can give more than one keyword to the photograph.\n\n")
	b.WriteString("Keywords should be concise and in lower case.\n\n")
	b.WriteString("Possible keywords are:\n")
	for _, tag := range tags {
		b.WriteString(" - ")
		b.WriteString(tag)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn:\n\n")
	b.WriteString("- List of found keywords\n")
	b.WriteString("- An explanation of what you did\n")
	b.WriteString("- A list of additional keywords you may find relevant\n")
	return b.String()
}

// AITagger sends library photos to the Gemini API and stores the keywords
// it proposes.
type AITagger struct {
	cli   *genai.Client
	cfg   *config.Config
	tags  repository.TagRepositoryInterface
	model string
}

// NewAITagger creates the tagger. The client reads GEMINI_API_KEY from the
// environment.
func NewAITagger(ctx context.Context, cfg *config.Config, tagRepo repository.TagRepositoryInterface) (*AITagger, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &AITagger{
		cli:   cli,
		cfg:   cfg,
		tags:  tagRepo,
		model: cfg.GeminiModel,
	}, nil
}

// TagImage resizes the photo at relPath (relative to the library root), asks
// the model for keywords and persists them. Returns the accepted tags.
func (t *AITagger) TagImage(ctx context.Context, relPath string) ([]string, error) {
	fullPath := filepath.Join(t.cfg.LibraryPath, relPath)

	imgData, err := media.ResizeForTagging(fullPath, t.cfg.TaggingImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s for tagging: %w", relPath, err)
	}

	resp, err := t.generate(ctx, imgData)
	if err != nil {
		return nil, err
	}

	log.Printf("tagger: %s -> %v (model says: %s)", relPath, resp.Tags, resp.Explanation)

	name := filepath.Base(relPath)
	if err := t.tags.TagImageAI(name, resp.Tags, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to store AI tags for %s: %w", name, err)
	}
	return resp.Tags, nil
}

func (t *AITagger) generate(ctx context.Context, imgData []byte) (*TagResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := t.cli.Models.GenerateContent(ctx, t.model,
			[]*genai.Content{{Parts: []*genai.Part{
				{Text: SystemPrompt(t.cfg.TagVocabulary)},
				{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: imgData}},
			}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			lastErr = fmt.Errorf("Gemini request failed: %w", err)
		} else if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrInvalidTagResponse
		} else {
			var parsed TagResponse
			txt := resp.Candidates[0].Content.Parts[0].Text
			if err := json.Unmarshal([]byte(txt), &parsed); err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrInvalidTagResponse, err)
			} else {
				return &parsed, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	return nil, lastErr
}
