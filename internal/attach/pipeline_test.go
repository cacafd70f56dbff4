// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/tasks"
)

// recordingScheduler counts submissions and runs nothing.
type recordingScheduler struct {
	mu    sync.Mutex
	kinds []string
}

func (s *recordingScheduler) Submit(kind, _ string, job tasks.Job) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
	return tasks.NewTask(kind, "", job), nil
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kinds)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// INGEST TESTS
// =============================================================================

func TestIngest_NonImageSchedulesNothing(t *testing.T) {
	sched := &recordingScheduler{}
	called := false
	p := NewPipeline(sched, func(string, model.Preview) { called = true }, WithLogger(quietLogger()))

	data := []byte("%PDF-1.4 fake")
	att, err := p.Ingest(Blob{Name: "report.pdf", MimeType: "application/pdf", Data: data})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(att.ID, "att_"))
	assert.Equal(t, "report.pdf", att.Name)
	assert.Equal(t, int64(len(data)), att.SizeBytes)
	assert.Equal(t, "application/pdf", att.MimeType)
	assert.Nil(t, att.Preview)
	assert.Equal(t, 0, sched.count())
	assert.False(t, called)
}

func TestIngest_ImageSchedulesPreview(t *testing.T) {
	sched := &recordingScheduler{}
	p := NewPipeline(sched, func(string, model.Preview) {}, WithLogger(quietLogger()))

	att, err := p.Ingest(Blob{Name: "pic.png", MimeType: "image/png", Data: pngBytes(t, 2, 2)})
	require.NoError(t, err)

	assert.Nil(t, att.Preview, "preview must not exist at ingest time")
	assert.Equal(t, []string{"preview"}, sched.kinds)
}

func TestIngest_PreviewDelivered(t *testing.T) {
	queue := tasks.NewQueueWithOptions(0, 0)
	runner := tasks.NewRunnerWithOptions(queue, tasks.RunnerOptions{Logger: quietLogger()})
	runner.Start()
	defer runner.Stop()

	type delivery struct {
		id string
		pv model.Preview
	}
	got := make(chan delivery, 1)
	p := NewPipeline(runner, func(id string, pv model.Preview) {
		got <- delivery{id, pv}
	}, WithLogger(quietLogger()))

	data := pngBytes(t, 3, 2)
	att, err := p.Ingest(Blob{Name: "chart.png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType, "mime is sniffed when missing")

	select {
	case d := <-got:
		assert.Equal(t, att.ID, d.id)
		assert.Equal(t, 3, d.pv.Width)
		assert.Equal(t, 2, d.pv.Height)
		assert.True(t, strings.HasPrefix(d.pv.DataURL, "data:image/png;base64,"))
	case <-time.After(5 * time.Second):
		t.Fatal("preview was not delivered")
	}
}

func TestIngest_MaxSize(t *testing.T) {
	p := NewPipeline(nil, nil, WithMaxSize(4), WithLogger(quietLogger()))

	_, err := p.Ingest(Blob{Name: "big.txt", Data: []byte("12345")})
	assert.True(t, errors.Is(err, errs.ErrInvalidState))

	att, err := p.Ingest(Blob{Name: "ok.txt", Data: []byte("1234")})
	require.NoError(t, err)
	assert.Equal(t, int64(4), att.SizeBytes)
}

func TestIngest_EmptyBlob(t *testing.T) {
	p := NewPipeline(nil, nil, WithLogger(quietLogger()))
	att, err := p.Ingest(Blob{Name: "empty.txt", MimeType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), att.SizeBytes)
	assert.Equal(t, "0 Bytes", att.FormattedSize())
}

func TestIngest_MimeNormalized(t *testing.T) {
	p := NewPipeline(nil, nil, WithLogger(quietLogger()))

	att, err := p.Ingest(Blob{Name: "notes", MimeType: "Text/Plain; charset=UTF-8", Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", att.MimeType)

	att, err = p.Ingest(Blob{Name: "notes", Data: []byte("plain words here")})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", att.MimeType)
}

func TestIngestPasted(t *testing.T) {
	sched := &recordingScheduler{}
	p := NewPipeline(sched, func(string, model.Preview) {}, WithLogger(quietLogger()))
	now := time.Date(2025, 3, 7, 14, 5, 9, 0, time.Local)

	att, err := p.IngestPasted(pngBytes(t, 1, 1), "", now)
	require.NoError(t, err)
	assert.Equal(t, "Screenshot-2025-03-07 14-05-09.png", att.Name)
	assert.Equal(t, 1, sched.count())

	_, err = p.IngestPasted([]byte("just text"), "text/plain", now)
	assert.True(t, errors.Is(err, errs.ErrInvalidState))
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello, file"), 0o644))

	p := NewPipeline(nil, nil, WithLogger(quietLogger()))

	att, err := p.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", att.Name)
	assert.Equal(t, int64(11), att.SizeBytes)
	assert.Equal(t, "text/plain", att.MimeType)

	_, err = p.IngestFile(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = p.IngestFile(dir)
	assert.True(t, errors.Is(err, errs.ErrInvalidState))
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"  spaced.txt  ", "spaced.txt"},
		{"/tmp/dir/file.go", "file.go"},
		{`C:\Users\me\doc.docx`, "doc.docx"},
		{"cafe\u0301.txt", "caf\u00e9.txt"},
		{"bad\x00name\n.txt", "badname.txt"},
		{"", DefaultName},
		{"dir/", DefaultName},
		{"..", DefaultName},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CleanName(tc.in), "%q", tc.in)
	}
}

func TestBuildPreview_Undecodable(t *testing.T) {
	pv := BuildPreview([]byte("not really an image"), "image/webp")
	assert.Equal(t, "data:image/webp;base64,bm90IHJlYWxseSBhbiBpbWFnZQ==", pv.DataURL)
	assert.Zero(t, pv.Width)
	assert.Zero(t, pv.Height)
}
