package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

const (
	DefaultCrossEncoderModelName = "ms-marco-MiniLM-L6-v2"
	maxCrossEncoderTokens        = 512
)

// LocalConfig configures the in-process ONNX cross-encoder.
type LocalConfig struct {
	// ModelPath is the directory containing model.onnx and tokenizer.json.
	ModelPath string
}

// LocalReranker runs cross-encoder inference in-process via ONNX Runtime.
// The model pairs (query, passage) into a single sequence and produces one
// relevance logit per pair; this is the dominant latency contributor in the
// retrieval pipeline and is expected to run on a blocking worker so it
// never stalls the async retrieval path.
type LocalReranker struct {
	cfg LocalConfig

	once      sync.Once
	loadErr   error
	session   *onnxruntime.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer

	mu     sync.Mutex
	closed bool
}

var _ Reranker = (*LocalReranker)(nil)

// NewLocalReranker constructs a LocalReranker. Model weights are not loaded
// until the first Rerank call.
func NewLocalReranker(cfg LocalConfig) *LocalReranker {
	return &LocalReranker{cfg: cfg}
}

// ensureLoaded lazily initializes the ONNX session and tokenizer. The first
// call, successful or not, emits a model-loaded/model-load-error event so
// collaborators watching the log stream see the singleton's load outcome
// exactly once.
func (r *LocalReranker) ensureLoaded() error {
	r.once.Do(func() {
		onnxPath := filepath.Join(r.cfg.ModelPath, "model.onnx")
		tokenizerPath := filepath.Join(r.cfg.ModelPath, "tokenizer.json")

		tok, err := tokenizers.FromFile(tokenizerPath)
		if err != nil {
			r.loadErr = fmt.Errorf("load tokenizer: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultCrossEncoderModelName), slog.String("reason", r.loadErr.Error()))
			return
		}

		inputs, outputs, err := onnxruntime.GetInputOutputInfo(onnxPath)
		if err != nil {
			tok.Close()
			r.loadErr = fmt.Errorf("inspect onnx model: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultCrossEncoderModelName), slog.String("reason", r.loadErr.Error()))
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
			r.loadErr = fmt.Errorf("create onnx session: %w", err)
			slog.Error("model-load-error", slog.String("model", DefaultCrossEncoderModelName), slog.String("reason", r.loadErr.Error()))
			return
		}

		r.tokenizer = tok
		r.session = session
		slog.Info("model-loaded", slog.String("model", DefaultCrossEncoderModelName))
	})
	return r.loadErr
}

// Rerank scores each (query, document) pair and returns results sorted by
// score descending. If topK is 0, all candidates are returned.
func (r *LocalReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}

	if err := r.ensureLoaded(); err != nil {
		return nil, fmt.Errorf("model load: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("reranker is closed")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	allIDs := make([][]int64, len(documents))
	allMask := make([][]int64, len(documents))
	allTypes := make([][]int64, len(documents))
	maxLen := 0

	for i, doc := range documents {
		enc := r.tokenizer.EncodeWithOptions(pairText(query, doc), true,
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
		if len(ids) > maxCrossEncoderTokens {
			ids = ids[:maxCrossEncoderTokens]
			mask = mask[:maxCrossEncoderTokens]
			types = types[:maxCrossEncoderTokens]
		}
		allIDs[i], allMask[i], allTypes[i] = ids, mask, types
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}

	batchSize := len(documents)
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
	if err := r.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("onnx inference produced no output")
	}
	logitsTensor, ok := outputs[0].(*onnxruntime.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected onnx output type %T", outputs[0])
	}
	defer logitsTensor.Destroy()

	logits := logitsTensor.GetData()
	results := make([]RerankResult, batchSize)
	for i := 0; i < batchSize; i++ {
		logit := float64(0)
		if i < len(logits) {
			logit = float64(logits[i])
		}
		results[i] = RerankResult{
			Index:    i,
			Score:    sigmoid(logit),
			Document: documents[i],
		}
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Available reports whether the model is loaded or loadable.
func (r *LocalReranker) Available(_ context.Context) bool {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return false
	}
	return r.ensureLoaded() == nil
}

// Close releases the ONNX session and tokenizer.
func (r *LocalReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.tokenizer != nil {
		r.tokenizer.Close()
	}
	if r.session != nil {
		return r.session.Destroy()
	}
	return nil
}

func pairText(query, document string) string {
	return query + " [SEP] " + document
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}
