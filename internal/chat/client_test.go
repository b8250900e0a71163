package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamify/api/internal/config"
)

type upsertBody struct {
	Users map[string]User `json:"users"`
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.ChatConfig{
		APIKey:    "test-key",
		APISecret: "test-api-secret",
		BaseURL:   baseURL,
	})
}

func TestUpsertUser_SendsAuthenticatedRequest(t *testing.T) {
	t.Parallel()

	var got upsertBody
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "jwt", r.Header.Get("Stream-Auth-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.UpsertUser(context.Background(), User{
		ID:    "user-1",
		Name:  "Ana",
		Image: "https://example.com/avatar.svg",
	})
	require.NoError(t, err)

	require.Contains(t, got.Users, "user-1")
	assert.Equal(t, "Ana", got.Users["user-1"].Name)

	// server token is a JWT signed with the API secret
	token, err := jwt.Parse(gotAuth, func(*jwt.Token) (interface{}, error) {
		return []byte("test-api-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
}

func TestUpsertUser_Idempotent(t *testing.T) {
	t.Parallel()

	mirror := make(map[string]User)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body upsertBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for id, user := range body.Users {
			mirror[id] = user
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	user := User{ID: "user-1", Name: "Ana", Image: "img"}

	require.NoError(t, client.UpsertUser(context.Background(), user))
	first := mirror["user-1"]

	require.NoError(t, client.UpsertUser(context.Background(), user))
	assert.Equal(t, first, mirror["user-1"])
	assert.Len(t, mirror, 1)
}

func TestUpsertUser_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mirror down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	err := client.UpsertUser(context.Background(), User{ID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	err = client.UpsertUser(context.Background(), User{Name: "no id"})
	assert.Error(t, err)
}

func TestCreateToken_SignedUserToken(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://unused")

	signed, err := client.CreateToken("user-1")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-api-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "user-1", claims["user_id"])

	_, err = client.CreateToken("")
	assert.Error(t, err)
}
