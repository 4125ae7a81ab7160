package domain

import "time"

// Route records which branch of the router produced an answer.
type Route string

const (
	RouteShortCircuit Route = "short_circuit"
	RouteSuggestion   Route = "suggestion"
	RouteFunnyChat    Route = "funny_chat"
	RouteHistory      Route = "history"
	RouteRetrieval    Route = "retrieval"
	RouteReasoning    Route = "reasoning"
	RouteFallback     Route = "fallback"
)

// ConversationTurn is one persisted question/answer exchange in a room.
type ConversationTurn struct {
	ID                  string
	RoomID              string
	Query               string
	Answer              string
	RetrievedChunkTexts []string
	IsOutOfDomain       bool
	Route               Route
	CreatedAt           time.Time
}

// Validate checks required fields.
func (t *ConversationTurn) Validate() error {
	if t.RoomID == "" {
		return ErrMissingRoomID
	}
	if t.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Suggestion is a cached out-of-domain question/answer pair.
type Suggestion struct {
	ID        string
	Question  string
	Answer    string
	Embedding []float32
	Score     float32
	CreatedAt time.Time
}

// OutOfScopeSentinel is the phrase the answer model emits when the
// retrieved context cannot answer the question.
const OutOfScopeSentinel = "Nội dung bạn đề cập không nằm trong phạm vi của nhà trường"

// FallbackContactMessage is shown whenever no grounded answer exists or
// an upstream dependency failed.
const FallbackContactMessage = `Xin chào! Rất tiếc, mình chưa thể cung cấp thông tin bạn đang tìm kiếm vào lúc này.

Để biết thêm thông tin chi tiết, bạn có thể liên hệ:

- **Hotline**: 090.883.1246
- **Website**: [tuyensinh.uit.edu.vn](https://tuyensinh.uit.edu.vn)

Nếu có thắc mắc khác, đừng ngần ngại hỏi mình nhé.`
