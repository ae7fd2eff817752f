package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	cause := stderrors.New("open data.csv: no such file or directory")
	err := fmt.Errorf("load dataset: %w", LoadWrap(cause, "cannot open input file"))

	assert.True(t, HasCode(err, CodeLoad))
	assert.False(t, HasCode(err, CodeSchema))
	assert.ErrorIs(t, err, cause)
	assert.False(t, HasCode(cause, CodeLoad))
	assert.False(t, HasCode(nil, CodeLoad))
}

func TestHasCode_NestedAppErrors(t *testing.T) {
	inner := Schema("row 3: empty value in column \"Color\"")
	outer := ExportWrap(inner, "export failed")

	assert.True(t, HasCode(outer, CodeExport))
	assert.True(t, HasCode(outer, CodeSchema))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeEmptyDataset, CodeOf(fmt.Errorf("run: %w", EmptyDataset("no rows"))))
	assert.Equal(t, CodeExport, CodeOf(ExportWrap(Schema("bad row"), "export failed")))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestAppError_Error(t *testing.T) {
	err := EmptyDataset("dataset has no rows")
	assert.Equal(t, "EMPTY_DATASET: dataset has no rows", err.Error())

	wrapped := RenderWrap(stderrors.New("boom"), "render chart")
	assert.Equal(t, "RENDER_ERROR: render chart (caused by: boom)", wrapped.Error())
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"not found", NotFound("chart not found"), http.StatusNotFound, CodeNotFound},
		{"rate limit", RateLimit("Too many requests"), http.StatusTooManyRequests, CodeRateLimit},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{"wrapped app error", fmt.Errorf("handler: %w", BadRequest("bad id")), http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, logger, tt.err, "req-1")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp struct {
				Error   AppError `json:"error"`
				Success bool     `json:"success"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}
