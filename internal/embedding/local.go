package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// DefaultLocalModel is a multilingual sentence transformer that handles Korean.
const DefaultLocalModel = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"

// LocalConfig configures the in-process embedder.
type LocalConfig struct {
	ModelPath string // an already downloaded ONNX model directory
	ModelName string // downloaded into ModelDir when ModelPath is empty
	ModelDir  string
	Dimension int
}

// modelName is the name recorded against embedded vectors. A loaded
// directory is named after its base unless ModelName says otherwise.
func (c LocalConfig) modelName() string {
	switch {
	case c.ModelName != "":
		return c.ModelName
	case c.ModelPath != "":
		return filepath.Base(filepath.Clean(c.ModelPath))
	default:
		return DefaultLocalModel
	}
}

// LocalEmbedder runs a sentence transformer in-process with hugot.
type LocalEmbedder struct {
	mu        sync.Mutex
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	model     string
	dimension int
}

// NewLocalEmbedder loads (and if necessary downloads) the model.
func NewLocalEmbedder(cfg LocalConfig) (*LocalEmbedder, error) {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}

	modelPath := cfg.ModelPath
	if modelPath == "" {
		var err error
		modelPath, err = prepareModel(cfg.modelName(), cfg.ModelDir)
		if err != nil {
			return nil, err
		}
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "chatbot-embedder",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return &LocalEmbedder{
		session:   session,
		pipeline:  pipeline,
		model:     cfg.modelName(),
		dimension: cfg.Dimension,
	}, nil
}

func prepareModel(modelName, modelDir string) (string, error) {
	if modelDir == "" {
		modelDir = "./models"
	}
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	options := hugot.NewDownloadOptions()
	options.OnnxFilePath = "onnx/model.onnx"
	path, err := hugot.DownloadModel(modelName, filepath.Clean(modelDir), options)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", modelName, err)
	}
	return path, nil
}

// Embed generates embeddings for the given texts.
func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	if len(result.Embeddings[0]) > 0 {
		e.dimension = len(result.Embeddings[0])
	}
	return result.Embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *LocalEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Model returns the model name.
func (e *LocalEmbedder) Model() string {
	return e.model
}

// Dimension returns the embedding dimension.
func (e *LocalEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Close releases the hugot session.
func (e *LocalEmbedder) Close() error {
	return e.session.Destroy()
}
