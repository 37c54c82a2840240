package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-recipe-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatUsesBearerAndResponseFormat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"drinks\":[]}"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("sk-test", srv.URL, "gpt-4o-mini", time.Second)
	out, err := p.Generate(context.Background(), "drinks please", llm.WithJSONFormat())
	require.NoError(t, err)

	assert.Equal(t, `{"drinks":[]}`, out)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, "gpt-4o-mini", got.Model)
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewProvider("k", srv.URL, "m", time.Second).Generate(context.Background(), "x")
	assert.True(t, errors.Is(err, llm.ErrEmptyResponse))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, llm.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, llm.StripCodeFence(` {"a":1} `))
}
