package decider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

func newTestOpenAIDecider(t *testing.T, handler http.HandlerFunc) *OpenAIDecider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openaisdk.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
		option.WithMaxRetries(0),
	)
	d, err := NewOpenAI(&client, OpenAIOptions{
		Model:        "test-model",
		Temperature:  0.7,
		MaxTokens:    256,
		SystemPrompt: "system prompt",
	})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	return d
}

func TestOpenAIDeciderToolCall(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	d := newTestOpenAIDecider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "get_quote", "arguments": "{\"origin\":\"Delhi\",\"destination\":\"Mumbai\",\"weight\":\"500kg\"}"}
					}]
				}
			}]
		}`)
	})

	out, err := d.Decide(context.Background(), contractx.DecisionRequest{
		Turns:   []contractx.ConversationTurn{{Role: contractx.RoleUser, Content: "quote Delhi to Mumbai 500kg"}},
		Actions: []contractx.ActionSchema{quoteAction()},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if len(out.Calls) != 1 || out.Calls[0].Action != "get_quote" || out.Calls[0].ID != "call_1" {
		t.Fatalf("unexpected calls: %#v", out.Calls)
	}
	if out.Calls[0].Args["weight"] != "500kg" {
		t.Fatalf("unexpected args: %#v", out.Calls[0].Args)
	}

	if gotBody["model"] != "test-model" {
		t.Fatalf("unexpected model: %v", gotBody["model"])
	}
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(messages))
	}
	tools, _ := gotBody["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("expected one tool, got %d", len(tools))
	}
}

func TestOpenAIDeciderText(t *testing.T) {
	t.Parallel()

	d := newTestOpenAIDecider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Where is the cargo going?"}}]}`)
	})

	out, err := d.Decide(context.Background(), contractx.DecisionRequest{
		Turns: []contractx.ConversationTurn{{Role: contractx.RoleUser, Content: "book a shipment"}},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if out.WantsAction() || out.Text != "Where is the cargo going?" {
		t.Fatalf("unexpected decision: %#v", out)
	}
}

func TestOpenAIDeciderServerError(t *testing.T) {
	t.Parallel()

	calls := 0
	d := newTestOpenAIDecider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded","type":"rate_limit"}}`)
	})

	_, err := d.Decide(context.Background(), contractx.DecisionRequest{
		Turns: []contractx.ConversationTurn{{Role: contractx.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("model must be called exactly once, got %d", calls)
	}
}

func TestOpenAIDeciderNoChoices(t *testing.T) {
	t.Parallel()

	d := newTestOpenAIDecider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"test-model","choices":[]}`)
	})

	_, err := d.Decide(context.Background(), contractx.DecisionRequest{})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestNewOpenAIValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAI(nil, OpenAIOptions{Model: "m"}); err == nil {
		t.Fatal("expected error for nil client")
	}
	client := openaisdk.NewClient(option.WithAPIKey("k"))
	if _, err := NewOpenAI(&client, OpenAIOptions{Model: " "}); err == nil {
		t.Fatal("expected error for empty model")
	}
}
