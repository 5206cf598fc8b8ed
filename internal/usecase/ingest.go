package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"jobrag/internal/domain"
	"jobrag/internal/port"
)

// Ingestor loads prepared chunk files into an embedded vector store. It
// consumes the JSONL produced by the upstream chunking stage, one
// {"text": ..., "metadata": {...}} object per line.
type Ingestor struct {
	embedder  port.Embedder
	store     port.VectorWriter
	batchSize int
	logger    *zap.Logger
}

// NewIngestor creates an ingestor that embeds batchSize chunks per provider
// call.
func NewIngestor(embedder port.Embedder, store port.VectorWriter, batchSize int, logger *zap.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestFile embeds and stores every chunk in the file, returning the number
// stored. onProgress, when set, is called after each batch with the number of
// chunks stored so far and the total.
func (g *Ingestor) IngestFile(ctx context.Context, path string, onProgress func(done, total int)) (int, error) {
	if g.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	chunks, err := loadChunkFile(path)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	stored := 0
	for i := 0; i < len(chunks); i += g.batchSize {
		end := i + g.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		vectors, err := g.embedder.Embed(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("failed to embed batch: %w", err)
		}
		if err := g.store.Upsert(ctx, batch, vectors); err != nil {
			return stored, fmt.Errorf("failed to store batch: %w", err)
		}

		stored += len(batch)
		if onProgress != nil {
			onProgress(stored, len(chunks))
		}
	}

	g.logger.Info("ingested chunk file", zap.String("path", path), zap.Int("chunks", stored))
	return stored, nil
}

func loadChunkFile(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, fmt.Errorf("failed to parse chunk line %q: %w", line, err)
		}
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk file %s: %w", path, err)
	}
	return chunks, nil
}
