package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderLocal  = "local"

	// Default models
	DefaultOpenAIModel  = "text-embedding-3-small"
	DefaultLocalModel   = "local-sha256"
	DefaultAzureVersion = "2024-02-01"

	// Dimensions
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Limits
	MaxBatchSize     = 100
	DefaultCacheSize = 10000

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	openAIURL   = "https://api.openai.com/v1/embeddings"
	httpTimeout = 30 * time.Second
)

// embeddingsResponse is the OpenAI embeddings wire format, shared by Azure
type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// httpBackend posts OpenAI style embedding requests
type httpBackend struct {
	provider   string
	modelName  string
	url        string
	setAuth    func(*http.Request)
	sendModel  bool
	httpClient *http.Client
}

func newOpenAIBackend(apiKey, model, baseURL string) *httpBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = openAIURL
	}
	return &httpBackend{
		provider:  ProviderOpenAI,
		modelName: model,
		url:       baseURL,
		sendModel: true,
		setAuth: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		},
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// newAzureBackend targets a deployment of an Azure OpenAI resource. The
// deployment determines the model, so none is sent.
func newAzureBackend(apiKey, endpoint, deployment, apiVersion string) *httpBackend {
	if apiVersion == "" {
		apiVersion = DefaultAzureVersion
	}
	u := strings.TrimRight(endpoint, "/") + "/openai/deployments/" + url.PathEscape(deployment) +
		"/embeddings?api-version=" + url.QueryEscape(apiVersion)
	return &httpBackend{
		provider:  ProviderAzure,
		modelName: deployment,
		url:       u,
		setAuth: func(r *http.Request) {
			r.Header.Set("api-key", apiKey)
		},
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

func (h *httpBackend) embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{"input": texts}
	if h.sendModel {
		reqBody["model"] = h.modelName
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	h.setAuth(req)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sort.SliceStable(apiResp.Data, func(i, j int) bool {
		return apiResp.Data[i].Index < apiResp.Data[j].Index
	})
	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (h *httpBackend) name() string  { return h.provider }
func (h *httpBackend) model() string { return h.modelName }

func (h *httpBackend) dimension() int {
	return OpenAIDimension
}

func (h *httpBackend) close() {
	h.httpClient.CloseIdleConnections()
}

// localBackend derives unit vectors from a SHA-256 stream of the text
type localBackend struct{}

func (localBackend) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = localVector(text)
	}
	return vectors, nil
}

func localVector(text string) []float32 {
	vector := make([]float32, LocalDimension)
	seed := sha256.Sum256([]byte(text))
	block := seed
	var counter [4]byte
	for i := 0; i < LocalDimension; i++ {
		j := i % len(block)
		if j == 0 && i > 0 {
			binary.BigEndian.PutUint32(counter[:], uint32(i))
			block = sha256.Sum256(append(seed[:], counter[:]...))
		}
		vector[i] = float32(block[j])/127.5 - 1
	}
	return NormalizeVector(vector)
}

func (localBackend) name() string   { return ProviderLocal }
func (localBackend) model() string  { return DefaultLocalModel }
func (localBackend) dimension() int { return LocalDimension }
func (localBackend) close()         {}
