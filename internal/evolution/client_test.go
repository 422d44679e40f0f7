package evolution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendText(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/message/sendText/guardiao", r.URL.Path)
		assert.Equal(t, "evo-key", r.Header.Get("apikey"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL + "/", APIKey: "evo-key", Instance: "guardiao"}, zap.NewNop())
	require.NoError(t, err)

	err = c.SendText(context.Background(), "5511999@s.whatsapp.net", "*Análise do Guardião*")
	require.NoError(t, err)
	assert.Equal(t, sendTextRequest{Number: "5511999@s.whatsapp.net", Text: "*Análise do Guardião*"}, got)
}

func TestSendText_Failure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "instance not connected", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "k", Instance: "i"}, zap.NewNop())
	require.NoError(t, err)

	err = c.SendText(context.Background(), "5511999", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "instance not connected")
	assert.Equal(t, 1, calls)
}

func TestSendText_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "k", Instance: "i"}, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, c.SendText(context.Background(), "5511999", "oi"))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Instance: "i"}, zap.NewNop())
	require.Error(t, err)
	_, err = NewClient(Config{URL: "http://evo"}, zap.NewNop())
	require.Error(t, err)
}
