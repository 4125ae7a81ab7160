//go:build e2e

package e2e

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	fakeAnswer     = "Học phí ngành Khoa học máy tính khoảng 35 triệu đồng mỗi năm."
	fakeDimensions = 1536
)

// fakeOpenAI answers chat and embedding calls deterministically. JSON-mode
// requests are told apart by the prompt they carry.
type fakeOpenAI struct {
	server      *httptest.Server
	completions atomic.Int64
	embeddings  atomic.Int64
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	f := &fakeOpenAI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", f.chat)
	mux.HandleFunc("/v1/embeddings", f.embed)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOpenAI) BaseURL() string {
	return f.server.URL + "/v1"
}

func (f *fakeOpenAI) chat(w http.ResponseWriter, r *http.Request) {
	f.completions.Add(1)

	var req goopenai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, goopenai.ChatCompletionResponse{
		ID:     "chatcmpl-e2e",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []goopenai.ChatCompletionChoice{{
			Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: reply(req)},
			FinishReason: goopenai.FinishReasonStop,
		}},
	})
}

func reply(req goopenai.ChatCompletionRequest) string {
	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case goopenai.ChatMessageRoleSystem:
			system = m.Content
		case goopenai.ChatMessageRoleUser:
			user = m.Content
		}
	}

	jsonMode := req.ResponseFormat != nil && req.ResponseFormat.Type == goopenai.ChatCompletionResponseFormatTypeJSONObject
	switch {
	case strings.Contains(system, "Thêm dấu"), strings.HasPrefix(system, "Dịch"):
		return user
	case jsonMode && system != "":
		out, _ := json.Marshal(map[string]interface{}{
			"sessions": []map[string]string{{"title": "Học phí", "content": user}},
		})
		return string(out)
	case jsonMode && strings.Contains(user, "is_in_domain"):
		return `{"is_in_domain": true}`
	case jsonMode:
		return `{"is_answer": false, "query": "Học phí ngành Khoa học máy tính là bao nhiêu?", "direction": "retrieval"}`
	default:
		return fakeAnswer
	}
}

func (f *fakeOpenAI) embed(w http.ResponseWriter, r *http.Request) {
	f.embeddings.Add(1)

	var req struct {
		Input interface{} `json:"input"`
		Model string      `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var inputs []string
	switch v := req.Input.(type) {
	case string:
		inputs = []string{v}
	case []interface{}:
		for _, s := range v {
			str, _ := s.(string)
			inputs = append(inputs, str)
		}
	}

	resp := goopenai.EmbeddingResponse{Object: "list", Model: goopenai.EmbeddingModel(req.Model)}
	for i, in := range inputs {
		resp.Data = append(resp.Data, goopenai.Embedding{Object: "embedding", Index: i, Embedding: hashEmbedding(in)})
	}
	writeJSON(w, resp)
}

// hashEmbedding is a normalized bag of hashed words, so texts sharing
// words land close together.
func hashEmbedding(text string) []float32 {
	vec := make([]float32, fakeDimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,?!:;")))
		vec[h.Sum32()%fakeDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
