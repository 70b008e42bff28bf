package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"postwave/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func testX(rt roundTripFunc) *X {
	return NewX(XConfig{
		APIBase:        "https://api.test/2",
		HTTPClient:     &http.Client{Transport: rt},
		InterSendDelay: time.Millisecond,
		RetryBase:      time.Millisecond,
		Logger:         testLogger(),
	})
}

// capturedPost is the request payload the adapter sends.
type capturedPost struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyTo string `json:"in_reply_to_tweet_id"`
	} `json:"reply"`
}

func decodePost(t *testing.T, r *http.Request) capturedPost {
	t.Helper()
	var p capturedPost
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return p
}

// --- PublishPost ---

func TestX_PublishSingle(t *testing.T) {
	var got *http.Request
	var payload capturedPost
	x := testX(func(r *http.Request) (*http.Response, error) {
		got = r
		payload = decodePost(t, r)
		return jsonResponse(201, `{"data":{"id":"1001"}}`, nil), nil
	})

	res := x.PublishPost(context.Background(), "secret-token", "hello world")
	if !res.OK || len(res.MessageIDs) != 1 || res.MessageIDs[0] != "1001" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.URL.String() != "https://api.test/2/tweets" {
		t.Fatalf("wrong endpoint: %s", got.URL)
	}
	if got.Header.Get("Authorization") != "Bearer secret-token" {
		t.Fatal("missing bearer credential")
	}
	if payload.Text != "hello world" || payload.Reply != nil {
		t.Fatalf("wrong payload: %+v", payload)
	}
}

func TestX_RetriesServerErrors(t *testing.T) {
	calls := 0
	x := testX(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return jsonResponse(503, `{"detail":"overloaded"}`, nil), nil
		}
		return jsonResponse(201, `{"data":{"id":"7"}}`, nil), nil
	})

	res := x.PublishPost(context.Background(), "tok", "persistent post")
	if !res.OK {
		t.Fatalf("expected success after retries, got %+v", res.Failure)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestX_RateLimitIsTerminal(t *testing.T) {
	calls := 0
	x := testX(func(r *http.Request) (*http.Response, error) {
		calls++
		h := http.Header{}
		h.Set("Retry-After", "42")
		return jsonResponse(429, `{"detail":"Too Many Requests"}`, h), nil
	})

	res := x.PublishPost(context.Background(), "tok", "post")
	if res.OK {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Fatalf("429 must not be retried, got %d calls", calls)
	}
	f := res.Failure
	if f.Kind != domain.ErrKindRateLimited || f.Retryable {
		t.Fatalf("wrong classification: %+v", f)
	}
	if f.RetryAfter != 42*time.Second {
		t.Fatalf("retry-after not propagated: %s", f.RetryAfter)
	}
}

func TestX_TokenExpired(t *testing.T) {
	calls := 0
	x := testX(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(401, `{"title":"Unauthorized"}`, nil), nil
	})

	res := x.PublishPost(context.Background(), "tok", "post")
	if res.OK || res.Failure.Kind != domain.ErrKindTokenExpired {
		t.Fatalf("expected token-expired, got %+v", res)
	}
	if calls != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls)
	}
}

func TestX_ErrorNeverContainsToken(t *testing.T) {
	x := testX(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(400, `{"detail":"bad request"}`, nil), nil
	})

	const token = "super-secret-credential"
	res := x.PublishPost(context.Background(), token, "post")
	if res.OK {
		t.Fatal("expected failure")
	}
	if strings.Contains(res.Failure.Error(), token) {
		t.Fatal("credential leaked into the error message")
	}
}

func TestX_MissingIDIsServerError(t *testing.T) {
	x := testX(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(201, `{"data":{}}`, nil), nil
	})

	res := x.PublishPost(context.Background(), "tok", "post")
	if res.OK || res.Failure.Kind != domain.ErrKindServerError {
		t.Fatalf("expected server-error for missing id, got %+v", res)
	}
}

func TestX_ThreadRepliesChain(t *testing.T) {
	var payloads []capturedPost
	x := testX(func(r *http.Request) (*http.Response, error) {
		payloads = append(payloads, decodePost(t, r))
		body := fmt.Sprintf(`{"data":{"id":"id%d"}}`, len(payloads))
		return jsonResponse(201, body, nil), nil
	})

	res := x.PublishPost(context.Background(), "tok", strings.Repeat("a", 700))
	if !res.OK || res.Incomplete {
		t.Fatalf("expected full thread, got %+v", res)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(payloads))
	}
	if payloads[0].Reply != nil {
		t.Fatal("first segment must not be a reply")
	}
	if payloads[1].Reply == nil || payloads[1].Reply.InReplyTo != "id1" {
		t.Fatalf("second segment should reply to id1: %+v", payloads[1].Reply)
	}
	if payloads[2].Reply == nil || payloads[2].Reply.InReplyTo != "id2" {
		t.Fatalf("third segment should reply to id2: %+v", payloads[2].Reply)
	}
}

func TestX_PartialThread(t *testing.T) {
	calls := 0
	x := testX(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(201, `{"data":{"id":"first"}}`, nil), nil
		}
		return jsonResponse(500, `{"detail":"boom"}`, nil), nil
	})

	res := x.PublishPost(context.Background(), "tok", strings.Repeat("a", 500))
	if !res.OK || !res.Incomplete {
		t.Fatalf("expected partial success, got %+v", res)
	}
	if len(res.MessageIDs) != 1 || res.MessageIDs[0] != "first" {
		t.Fatalf("expected the live id, got %v", res.MessageIDs)
	}
}
