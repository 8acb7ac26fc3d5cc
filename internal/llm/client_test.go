package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestCompleteSendsUserMessage(t *testing.T) {
	var got chatRequest
	client := &Client{
		BaseURL: "https://api.test/v1/",
		APIKey:  "sk-test",
		Model:   "gpt-test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				if req.URL.String() != "https://api.test/v1/chat/completions" {
					t.Errorf("unexpected URL %s", req.URL)
				}
				if req.Header.Get("Authorization") != "Bearer sk-test" {
					t.Errorf("missing bearer token")
				}
				body, _ := io.ReadAll(req.Body)
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("decode request: %v", err)
				}
				return response(200, `{"choices":[{"message":{"role":"assistant","content":"uncle(tom, ann)."}}]}`)
			}),
		},
	}

	out, err := client.Complete(context.Background(), "translate this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "uncle(tom, ann)." {
		t.Fatalf("unexpected output: %s", out)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "translate this" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Temperature != 0 || got.Model != "gpt-test" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestCompleteFullEndpoint(t *testing.T) {
	client := &Client{
		BaseURL: "https://api.test/v1/chat/completions",
		Model:   "gpt-test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				if !strings.HasSuffix(req.URL.Path, "/v1/chat/completions") {
					t.Errorf("endpoint rewritten: %s", req.URL.Path)
				}
				return response(200, `{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)
			}),
		},
	}
	out, err := client.Complete(context.Background(), "user prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hi" {
		t.Fatalf("unexpected completion %s", out)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error payload", 200, `{"error":{"message":"bad"}}`, "llm error: bad"},
		{"error payload with status", 401, `{"error":{"message":"invalid key"}}`, "invalid key"},
		{"status only", 502, `<html>bad gateway</html>`, "server returned 502"},
		{"no choices", 200, `{"choices":[]}`, "empty response"},
		{"garbage", 200, `not json`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				BaseURL: "https://api.test/v1",
				Model:   "gpt-test",
				HTTPClient: &http.Client{
					Transport: roundTrip(func(req *http.Request) *http.Response {
						return response(tt.status, tt.body)
					}),
				},
			}
			_, err := client.Complete(context.Background(), "q")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCompleteRequiresModel(t *testing.T) {
	if _, err := (&Client{BaseURL: "https://api.test/v1"}).Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error without model")
	}
}
