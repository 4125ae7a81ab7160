package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// Tool names exposed to the model.
const (
	ToolSumSubjects       = "sum_subjects"
	ToolCompareScore      = "compare_score"
	ToolGetCutoffScores   = "get_cutoff_scores"
	ToolRetrieveDocuments = "retrieve_documents"
)

// Retriever fetches grounding context for retrieve_documents.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error)
}

// Toolbox executes tool calls. It records the chunk texts returned by
// retrieve_documents so callers can persist them with the turn.
type Toolbox struct {
	tables    *ScoreTables
	retriever Retriever
	retrieved []string
}

// NewToolbox creates a toolbox. retriever may be nil to disable
// retrieve_documents.
func NewToolbox(tables *ScoreTables, retriever Retriever) *Toolbox {
	return &Toolbox{tables: tables, retriever: retriever}
}

// Retrieved returns the chunk texts gathered so far.
func (tb *Toolbox) Retrieved() []string {
	return tb.retrieved
}

// Definitions describes the tools for the chat completion request.
func (tb *Toolbox) Definitions() []openai.Tool {
	yearProp := jsonschema.Definition{
		Type:        jsonschema.Integer,
		Description: fmt.Sprintf("Năm tuyển sinh. Bỏ trống để dùng năm gần nhất (%d).", tb.tables.LatestYear()),
	}
	methodProp := jsonschema.Definition{
		Type:        jsonschema.String,
		Enum:        []string{string(domain.ScoreMethodHighSchool), string(domain.ScoreMethodCompetency)},
		Description: "thpt: thi tốt nghiệp THPT (thang 30); dgnl: đánh giá năng lực (thang 1200).",
	}

	defs := []openai.Tool{
		function(ToolSumSubjects,
			"Cộng điểm ba môn của thí sinh và xác định tổ hợp xét tuyển (A00, A01, D01, D06, D07).",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"subjects": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}, Description: "Tên ba môn, ví dụ Toán, Lý, Hóa."},
					"scores":   {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.Number}, Description: "Điểm ba môn theo cùng thứ tự, từ 0 đến 10."},
				},
				Required: []string{"subjects", "scores"},
			}),
		function(ToolCompareScore,
			"So sánh tổng điểm của thí sinh với điểm chuẩn của tất cả các ngành.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"score":  {Type: jsonschema.Number, Description: "Tổng điểm. Trên 30 được hiểu là điểm đánh giá năng lực."},
					"year":   yearProp,
					"method": methodProp,
				},
				Required: []string{"score"},
			}),
		function(ToolGetCutoffScores,
			"Lấy bảng điểm chuẩn chính thức theo năm và phương thức.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"year":   yearProp,
					"method": methodProp,
				},
			}),
	}
	if tb.retriever != nil {
		defs = append(defs, function(ToolRetrieveDocuments,
			"Tìm thông tin tuyển sinh liên quan trong kho tài liệu của trường.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {Type: jsonschema.String, Description: "Câu truy vấn tìm kiếm."},
				},
				Required: []string{"query"},
			}))
	}
	return defs
}

func function(name, description string, params jsonschema.Definition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

type sumArgs struct {
	Subjects []string  `json:"subjects"`
	Scores   []float64 `json:"scores"`
}

type scoreArgs struct {
	Score  float64 `json:"score"`
	Year   int     `json:"year"`
	Method string  `json:"method"`
}

type retrieveArgs struct {
	Query string `json:"query"`
}

type toolError struct {
	Error string `json:"error"`
}

// Execute runs one tool call and returns the JSON fed back to the model.
// Domain errors become {"error": ...} results so the model can explain
// them; only upstream failures are returned as errors.
func (tb *Toolbox) Execute(ctx context.Context, name, arguments string) (string, error) {
	out, err := tb.execute(ctx, name, arguments)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Code != domain.ErrCodeUpstreamUnavailable {
			msg := de.Message
			if de.Err != nil {
				msg += ": " + de.Err.Error()
			}
			return encode(toolError{Error: msg})
		}
		if domain.IsUpstream(err) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return encode(toolError{Error: err.Error()})
	}
	return out, nil
}

func (tb *Toolbox) execute(ctx context.Context, name, arguments string) (string, error) {
	switch name {
	case ToolSumSubjects:
		var args sumArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		sum, err := SumSubjects(args.Subjects, args.Scores)
		if err != nil {
			return "", err
		}
		return encode(sum)

	case ToolCompareScore:
		var args scoreArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		method, err := optionalMethod(args.Method)
		if err != nil {
			return "", err
		}
		return encode(tb.tables.CompareScore(args.Score, args.Year, method))

	case ToolGetCutoffScores:
		var args scoreArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		method, err := optionalMethod(args.Method)
		if err != nil {
			return "", err
		}
		return encode(tb.tables.CutoffScores(args.Year, method))

	case ToolRetrieveDocuments:
		if tb.retriever == nil {
			return "", fmt.Errorf("unknown tool %q", name)
		}
		var args retrieveArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return "", err
		}
		res, err := tb.retriever.Retrieve(ctx, args.Query)
		if err != nil {
			return "", err
		}
		tb.retrieved = append(tb.retrieved, res.Texts()...)
		return res.CombinedContext, nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

func optionalMethod(s string) (domain.ScoreMethod, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return domain.ParseScoreMethod(s)
}

func decodeArgs(arguments string, v any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
