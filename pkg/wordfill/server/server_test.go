package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := wordfill.NewLogger(io.Discard, wordfill.LogOff)
	engine := wordfill.New(wordfill.WithLogger(logger))
	t.Cleanup(func() { _ = engine.Close() })
	return New(engine)
}

type formPart struct {
	field, filename string
	content         []byte
}

func multipartBody(t *testing.T, parts ...formPart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, string(p.content)))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRenderWithJSONValue(t *testing.T) {
	srv := newTestServer(t)
	tpl := docxtest.New(docxtest.Paragraphs("Hello {{name}}")).Bytes(t)

	body, ct := multipartBody(t,
		formPart{field: "template", filename: "tpl.docx", content: tpl},
		formPart{field: "data", content: []byte(`{"name": "World"}`)},
	)
	req := httptest.NewRequest(http.MethodPost, "/render", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, docxContentType, rec.Header().Get("Content-Type"))
	doc := docxtest.ReadPart(t, rec.Body.Bytes(), "word/document.xml")
	assert.Equal(t, "Hello World", docxtest.Text(doc))
}

func TestRenderWithYAMLFile(t *testing.T) {
	srv := newTestServer(t)
	tpl := docxtest.New(docxtest.Paragraphs("{{customer.name}}")).Bytes(t)

	body, ct := multipartBody(t,
		formPart{field: "template", filename: "tpl.docx", content: tpl},
		formPart{field: "data", filename: "data.yaml", content: []byte("customer:\n  name: Jane\n")},
	)
	req := httptest.NewRequest(http.MethodPost, "/render", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Jane", docxtest.Text(docxtest.ReadPart(t, rec.Body.Bytes(), "word/document.xml")))
}

func TestRenderErrors(t *testing.T) {
	badRows := docxtest.New(docxtest.Table([]string{"{{a.x}}", "{{b.y}}", "{{c.z}}"})).Bytes(t)

	tests := []struct {
		name   string
		parts  []formPart
		status int
	}{
		{
			name:   "missing template",
			parts:  []formPart{{field: "data", content: []byte(`{}`)}},
			status: http.StatusBadRequest,
		},
		{
			name: "not a docx",
			parts: []formPart{
				{field: "template", filename: "tpl.docx", content: []byte("plain text")},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "bad data",
			parts: []formPart{
				{field: "template", filename: "tpl.docx", content: docxtest.New(docxtest.Paragraphs("x")).Bytes(t)},
				{field: "data", content: []byte(`{"broken"`)},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "too many row roots",
			parts: []formPart{
				{field: "template", filename: "tpl.docx", content: badRows},
			},
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			body, ct := multipartBody(t, tt.parts...)
			req := httptest.NewRequest(http.MethodPost, "/render", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)
	tpl := docxtest.New(docxtest.Paragraphs("{{name}}", "@foreach", "@endforeach")).Bytes(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(tpl)))

	require.Equal(t, http.StatusOK, rec.Code)
	var report wordfill.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Placeholders, 1)
	assert.Equal(t, "name", report.Placeholders[0].Key)
	require.NotEmpty(t, report.Issues)
	assert.Equal(t, wordfill.IssueCodeForeachPath, report.Issues[0].Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	srv := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, addr, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	http.DefaultClient.CloseIdleConnections()
}
