package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "spanish", want: "es"},
		{in: " French ", want: "fr"},
		{in: "deutsch", want: "de"},
		{in: "ja", want: "ja"},
		{in: "pt-BR", want: "pt-BR"},
		{in: "", wantErr: true},
		{in: "klingonese", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveLanguage(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGoogleTranslator_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "es", r.URL.Query().Get("tl"))
		assert.Equal(t, "auto", r.URL.Query().Get("sl"))
		assert.Equal(t, "good morning. how are you", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[[["Buenos días. ","good morning. ",null,null,10],["¿Cómo estás?","how are you",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	tr := NewGoogleTranslator(srv.URL, srv.Client(), zaptest.NewLogger(t))

	got, err := tr.Translate(context.Background(), "good morning. how are you", "spanish")
	require.NoError(t, err)
	assert.Equal(t, "Buenos días. ¿Cómo estás?", got)
}

func TestGoogleTranslator_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewGoogleTranslator(srv.URL, srv.Client(), zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := tr.Translate(ctx, "hello", "spanish")
	assert.ErrorContains(t, err, "429")

	_, err = tr.Translate(ctx, "hello", "klingonese")
	assert.ErrorContains(t, err, "unsupported target language")

	_, err = tr.Translate(ctx, "  ", "spanish")
	assert.Error(t, err)
}
