package embed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

// Local embedding model defaults. The bundled model is a BERT-family
// sentence embedder (BGE-small class) producing 384-dimensional vectors.
const (
	DefaultLocalModelName  = "bge-small-en-v1.5"
	DefaultLocalDimensions = 384
	maxLocalTokens         = 512
)

// LocalConfig configures the local ONNX embedder.
type LocalConfig struct {
	// ModelPath is the directory containing model.onnx and tokenizer.json.
	ModelPath string

	// Dimensions overrides the declared output dimension (0 = use default).
	Dimensions int
}

// LocalEmbedder runs ONNX inference in-process. The model is loaded lazily
// on first use and kept resident for the process lifetime; inference calls
// are serialized around the session handle (single-writer), matching the
// contract that concurrent callers share one model instance.
type LocalEmbedder struct {
	cfg LocalConfig

	once      sync.Once
	loadErr   error
	session   *onnxruntime.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer

	mu     sync.Mutex // serializes inference calls around the session handle
	closed bool
	dims   int
}

var _ Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder constructs a LocalEmbedder. Model weights are not loaded
// until the first Embed/EmbedBatch call.
func NewLocalEmbedder(cfg LocalConfig) *LocalEmbedder {
	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultLocalDimensions
	}
	return &LocalEmbedder{cfg: cfg, dims: dims}
}

// ensureLoaded lazily initializes the ONNX session and tokenizer. The first
// call, successful or not, emits a model-loaded/model-load-error event so
// collaborators watching the log stream see the singleton's load outcome
// exactly once.
func (e *LocalEmbedder) ensureLoaded() error {
	e.once.Do(func() {
		onnxPath := filepath.Join(e.cfg.ModelPath, "model.onnx")
		tokenizerPath := filepath.Join(e.cfg.ModelPath, "tokenizer.json")

		tok, err := tokenizers.FromFile(tokenizerPath)
		if err != nil {
			e.loadErr = fmt.Errorf("load tokenizer: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultLocalModelName), slog.String("reason", e.loadErr.Error()))
			return
		}

		inputs, outputs, err := onnxruntime.GetInputOutputInfo(onnxPath)
		if err != nil {
			tok.Close()
			e.loadErr = fmt.Errorf("inspect onnx model: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultLocalModelName), slog.String("reason", e.loadErr.Error()))
			return
		}
		inputNames := make([]string, len(inputs))
		for i := range inputs {
			inputNames[i] = inputs[i].Name
		}
		outputNames := make([]string, len(outputs))
		for i := range outputs {
			outputNames[i] = outputs[i].Name
		}

		session, err := onnxruntime.NewDynamicAdvancedSession(onnxPath, inputNames, outputNames, nil)
		if err != nil {
			tok.Close()
			e.loadErr = fmt.Errorf("create onnx session: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultLocalModelName), slog.String("reason", e.loadErr.Error()))
			return
		}

		e.tokenizer = tok
		e.session = session
		slog.Info("model-loaded", slog.String("model", DefaultLocalModelName), slog.Int("dimensions", e.dims))
	})
	return e.loadErr
}

// Embed generates an embedding for a single text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch runs inference for a batch of texts, preserving input order.
// Calls are serialized: the session handle is not safe for concurrent use
// from this wrapper's perspective even though ONNX Runtime itself is
// thread-safe, because tokenization and tensor construction share state.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := e.ensureLoaded(); err != nil {
		return nil, fmt.Errorf("model load: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	allIDs := make([][]int64, len(texts))
	allMask := make([][]int64, len(texts))
	allTypes := make([][]int64, len(texts))
	maxLen := 0

	for i, text := range texts {
		enc := e.tokenizer.EncodeWithOptions(text, true,
			tokenizers.WithReturnAttentionMask(),
			tokenizers.WithReturnTypeIDs(),
		)
		ids := make([]int64, len(enc.IDs))
		mask := make([]int64, len(enc.AttentionMask))
		types := make([]int64, len(enc.TypeIDs))
		for j := range enc.IDs {
			ids[j] = int64(enc.IDs[j])
			mask[j] = int64(enc.AttentionMask[j])
			types[j] = int64(enc.TypeIDs[j])
		}
		if len(ids) > maxLocalTokens {
			ids = ids[:maxLocalTokens]
			mask = mask[:maxLocalTokens]
			types = types[:maxLocalTokens]
		}
		allIDs[i], allMask[i], allTypes[i] = ids, mask, types
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}

	batchSize := len(texts)
	flatIDs := make([]int64, batchSize*maxLen)
	flatMask := make([]int64, batchSize*maxLen)
	flatTypes := make([]int64, batchSize*maxLen)
	for i := 0; i < batchSize; i++ {
		for j := 0; j < maxLen; j++ {
			idx := i*maxLen + j
			if j < len(allIDs[i]) {
				flatIDs[idx] = allIDs[i][j]
				flatMask[idx] = allMask[i][j]
				flatTypes[idx] = allTypes[i][j]
			}
		}
	}

	shape := onnxruntime.NewShape(int64(batchSize), int64(maxLen))

	idsTensor, err := onnxruntime.NewTensor(shape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("build input tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := onnxruntime.NewTensor(shape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("build attention tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := onnxruntime.NewTensor(shape, flatTypes)
	if err != nil {
		return nil, fmt.Errorf("build token type tensor: %w", err)
	}
	defer typesTensor.Destroy()

	inputs := []onnxruntime.Value{idsTensor, maskTensor, typesTensor}
	outputs := []onnxruntime.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("onnx inference produced no output")
	}
	resultTensor, ok := outputs[0].(*onnxruntime.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected onnx output type %T", outputs[0])
	}
	defer resultTensor.Destroy()

	flat := resultTensor.GetData()
	result := make([][]float32, batchSize)
	for i := 0; i < batchSize; i++ {
		// CLS-token pooling: the first token position of each sequence's
		// last_hidden_state is the sentence embedding.
		start := i * maxLen * e.dims
		end := start + e.dims
		if end > len(flat) {
			return nil, fmt.Errorf("onnx output shorter than expected: batch %d", i)
		}
		vec := make([]float32, e.dims)
		copy(vec, flat[start:end])
		result[i] = normalizeVector(vec)
	}

	return result, nil
}

// Dimensions returns the embedding dimension.
func (e *LocalEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *LocalEmbedder) ModelName() string { return DefaultLocalModelName }

// Available reports whether the model is loaded or loadable.
func (e *LocalEmbedder) Available(_ context.Context) bool {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return false
	}
	return e.ensureLoaded() == nil
}

// Close releases the ONNX session and tokenizer.
func (e *LocalEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.tokenizer != nil {
		e.tokenizer.Close()
	}
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// SetBatchIndex is a no-op: the local provider has no thermal-aware
// timeout schedule (in-process inference has no network round trip).
func (e *LocalEmbedder) SetBatchIndex(_ int) {}

// SetFinalBatch is a no-op for the same reason.
func (e *LocalEmbedder) SetFinalBatch(_ bool) {}
