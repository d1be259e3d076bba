// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-router/internal/analysis"
	"complaint-router/internal/api"
	"complaint-router/internal/classifier"
	"complaint-router/internal/common/auth"
	"complaint-router/internal/common/config"
	"complaint-router/internal/common/database"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/dataset"
	"complaint-router/internal/pipeline"
	"complaint-router/internal/provider/openrouter"
	"complaint-router/internal/provider/watsonx"
	"complaint-router/internal/response"
)

const tokenKey = "complaint-router:watsonx:token"

// upstreams fakes IAM, the watsonx stream and OpenRouter.
type upstreams struct {
	iam, stream, chat *httptest.Server

	iamCalls    atomic.Int32
	streamCalls atomic.Int32
	chatCalls   atomic.Int32

	streamStatus int
	verdict      string
}

func newUpstreams(t *testing.T, streamStatus int, verdict string) *upstreams {
	t.Helper()
	u := &upstreams{streamStatus: streamStatus, verdict: verdict}

	u.iam = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.iamCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key", r.PostForm.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"iam-token","token_type":"Bearer","expires_in":3600}`)
	}))

	u.stream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.streamCalls.Add(1)
		assert.Equal(t, "Bearer iam-token", r.Header.Get("Authorization"))
		if u.streamStatus != http.StatusOK {
			w.WriteHeader(u.streamStatus)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Your water supply complaint ", "has been forwarded to Jal Nigam."} {
			b, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{{"delta": map[string]string{"content": part}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))

	u.chat = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.chatCalls.Add(1)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Messages, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		content := "**Namaste.** We have registered your complaint with the department."
		if strings.HasPrefix(req.Messages[0].Content, "You are Samadhan AI, an expert system") {
			content = u.verdict
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))

	t.Cleanup(func() {
		u.iam.Close()
		u.stream.Close()
		u.chat.Close()
	})
	return u
}

func newStack(t *testing.T, u *upstreams, mr *miniredis.Miniredis) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	ds := dataset.MustLoad()

	redis, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, redis.Ping(context.Background()))
	t.Cleanup(func() { _ = redis.Close() })

	tokens := auth.NewTokenCache(
		auth.NewIAMClient(u.iam.URL, "test-key", 5*time.Second),
		auth.WithStore(database.NewRedisTokenStore(redis, tokenKey)),
		auth.WithLogger(log),
	)
	wx := watsonx.New(watsonx.Config{APIKey: "test-key", StreamURL: u.stream.URL, HeaderTimeout: 5 * time.Second}, tokens, log)
	or := openrouter.New(openrouter.Config{APIKey: "or-key", URL: u.chat.URL, Timeout: 5 * time.Second}, log)

	proc := pipeline.New(
		analysis.New(or, ds, log),
		response.New(ds, log, response.StreamStrategy{Generator: wx}, response.ChatStrategy{Generator: or}),
		log,
	)

	srv := api.NewServer(api.Config{
		ServiceName: "complaint-router",
		Version:     "test",
		Providers:   api.ProviderStatus{Watsonx: wx.Configured(), OpenRouter: or.Configured()},
	}, proc, classifier.New(ds), ds, log)
	return srv.Handler()
}

func post(t *testing.T, h http.Handler, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

const waterVerdict = `Here is the analysis:
{"category": "Utilities", "priority": "high", "department": "Water Supply",
 "sentiment": "negative", "timeline": "2 days", "confidence": 0.9, "district": "Lucknow"}`

func TestAnalyzeEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	u := newUpstreams(t, http.StatusOK, waterVerdict)
	h := newStack(t, u, mr)

	code, body := post(t, h, "/api/ai/analyze", `{"complaint": "No water supply in Lucknow for 5 days", "language": "hi"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Utilities", body["category"])
	assert.Equal(t, "high", body["priority"])
	assert.Equal(t, "ai_rag", body["source"])
	assert.Equal(t, "Lucknow", body["district"])
	assert.Equal(t, "hi", body["language"])
	assert.Equal(t, "Your water supply complaint has been forwarded to Jal Nigam.", body["aiResponse"])
	assert.NotEmpty(t, body["requestId"])

	info, ok := body["departmentInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "0522-2623206", info["districtDm"])

	assert.EqualValues(t, 1, u.chatCalls.Load())
	assert.EqualValues(t, 1, u.streamCalls.Load())
	assert.EqualValues(t, 1, u.iamCalls.Load())
	assert.True(t, mr.Exists(tokenKey), "token should be shared through redis")
}

func TestChatFallsBackWhenStreamFails(t *testing.T) {
	mr := miniredis.RunT(t)
	u := newUpstreams(t, http.StatusInternalServerError, waterVerdict)
	h := newStack(t, u, mr)

	code, body := post(t, h, "/api/ai/chat", `{"message": "No water supply in Lucknow for 5 days"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Namaste. We have registered your complaint with the department.", body["response"])
	assert.Equal(t, "en", body["language"])
	assert.EqualValues(t, 2, u.chatCalls.Load())
}

func TestTokenReusedAcrossRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	u := newUpstreams(t, http.StatusOK, waterVerdict)
	h := newStack(t, u, mr)

	for i := 0; i < 3; i++ {
		code, _ := post(t, h, "/api/ai/chat", `{"message": "Streetlight broken near my house"}`)
		require.Equal(t, http.StatusOK, code)
	}
	assert.EqualValues(t, 1, u.iamCalls.Load())
	assert.EqualValues(t, 3, u.streamCalls.Load())

	// A second replica sharing the store skips the exchange.
	h2 := newStack(t, u, mr)
	code, _ := post(t, h2, "/api/ai/chat", `{"message": "Road damaged in Kanpur"}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, u.iamCalls.Load())
}

func TestAnalyzeRuleBasedWhenVerdictUnusable(t *testing.T) {
	mr := miniredis.RunT(t)
	u := newUpstreams(t, http.StatusOK, "I cannot help with that.")
	h := newStack(t, u, mr)

	code, body := post(t, h, "/api/ai/analyze", `{"complaint": "Hospital refused emergency patient, ambulance not available"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "rule_based", body["source"])
	assert.Equal(t, "Healthcare", body["category"])
	assert.Equal(t, "critical", body["priority"])
}
