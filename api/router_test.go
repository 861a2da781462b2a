package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBot struct{ username string }

func (f *fakeBot) Username() string { return f.username }

func TestStatusEndpoint(t *testing.T) {
	router := NewRouter(&fakeBot{username: "sharebot"}, zap.NewNop())

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "sharebot", body["bot"])
		assert.NotEmpty(t, body["uptime"])
	}
}
