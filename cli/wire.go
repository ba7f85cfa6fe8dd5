package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-silversense/config"
	"go-silversense/db"
	"go-silversense/fusion"
	"go-silversense/guidance"
	"go-silversense/intent"
	"go-silversense/llmfusion"
	"go-silversense/mlmodel"
	"go-silversense/nlp"
	"go-silversense/processor"
	"go-silversense/stt"

	"github.com/sashabaranov/go-openai"
)

// app is everything serve needs, built once from the configuration.
type app struct {
	pipeline *processor.Pipeline
	loader   *mlmodel.Loader
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires every collaborator. Missing credentials are not an error:
// the matching collaborator is left out and its fallback is used.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	rules, err := intent.LoadFile(cfg.IntentRulesPath)
	if err != nil {
		return nil, err
	}

	var oa *openai.Client
	if cfg.OpenAIKey != "" {
		oa = openai.NewClient(cfg.OpenAIKey)
	} else {
		log.Println("OPENAI_API_KEY not set; speech-to-text and OpenAI guidance disabled")
	}

	deps := processor.Deps{
		Rules:    rules,
		Engine:   fusion.Default(),
		Language: cfg.Language,
		Guidance: guidance.NewService(buildNarrator(ctx, cfg, oa), 0),
	}

	if oa != nil {
		deps.STT = stt.NewOpenAITranscriber(oa, cfg.TranscriptionModel, cfg.Language)
		if cfg.FusionLLMAudit {
			cls := llmfusion.NewClassifier(llmfusion.NewOpenAICompleter(oa, cfg.OpenAIModel))
			deps.Auditor = llmfusion.NewAuditor(cls, 0)
		}
	}

	var backup mlmodel.Classifier = mlmodel.Fallback{}
	if cfg.SoundModelURL != "" {
		backup = mlmodel.NewRemoteClassifier(cfg.SoundModelURL)
	}
	a.loader = mlmodel.NewLoader(cfg.SoundModelDir, backup)
	if !a.loader.Probe() {
		log.Printf("No sound model in %s yet; using %T", cfg.SoundModelDir, backup)
	}
	a.closers = append(a.closers, a.loader.Close)
	deps.Sound = a.loader

	if cfg.SentimentEnabled {
		lc, err := nlp.InitLanguageClient(ctx)
		if err != nil {
			log.Printf("Sentiment enrichment disabled: %v", err)
		} else {
			deps.Sentiment = nlp.NewCloudAnalyzer(lc)
			a.closers = append(a.closers, func() error {
				nlp.CloseLanguageClient()
				return nil
			})
		}
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	deps.Store = store

	a.pipeline = processor.New(deps)
	return a, nil
}

func buildNarrator(ctx context.Context, cfg *config.Config, oa *openai.Client) guidance.Narrator {
	switch cfg.NarratorProvider {
	case config.NarratorOpenAI:
		if oa != nil {
			return guidance.NewOpenAINarrator(oa, cfg.OpenAIModel)
		}
	case config.NarratorGemini:
		n, err := guidance.NewGeminiNarrator(ctx, cfg.GeminiKey, cfg.GeminiModel, "gemini-1.5-flash")
		if err != nil {
			log.Printf("Gemini narrator disabled: %v", err)
			return nil
		}
		return n
	}
	log.Println("No narrator available; guidance will use the built-in fallback")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		s, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("Storing situations in %s", cfg.DBPath)
		return s, nil
	case config.StoreFirestore:
		c, err := db.InitFirestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		return db.NewFirestoreStore(c), nil
	}
	return db.Nop{}, nil
}
