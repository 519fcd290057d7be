package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/service"
)

// spyDocs wraps a real store, counts every call and lets a test force write
// failures. Leave an error field nil to pass the call through.
type spyDocs struct {
	docstore.Store

	mu        sync.Mutex
	calls     int
	insertErr error
	updateErr error
	deleteErr error
}

var _ docstore.Store = (*spyDocs)(nil)

func (s *spyDocs) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *spyDocs) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyDocs) NewID(ctx context.Context, c string) (string, error) {
	s.count()
	return s.Store.NewID(ctx, c)
}

func (s *spyDocs) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.count()
	return s.Store.Query(ctx, q)
}

func (s *spyDocs) Get(ctx context.Context, c, id string) (docstore.Document, error) {
	s.count()
	return s.Store.Get(ctx, c, id)
}

func (s *spyDocs) Insert(ctx context.Context, c, id string, data map[string]any) (string, error) {
	s.count()
	if s.insertErr != nil {
		return "", s.insertErr
	}
	return s.Store.Insert(ctx, c, id, data)
}

func (s *spyDocs) Update(ctx context.Context, c, id string, fields map[string]any) error {
	s.count()
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.Update(ctx, c, id, fields)
}

func (s *spyDocs) Delete(ctx context.Context, c, id string) error {
	s.count()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, c, id)
}

// spyBlobs wraps blobstore.Memory and records uploads and deletes in order.
type spyBlobs struct {
	*blobstore.Memory

	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr func(path string) error
	deleteErr func(ref string) error
}

var _ blobstore.Store = (*spyBlobs)(nil)

func newSpyBlobs() *spyBlobs {
	return &spyBlobs{Memory: blobstore.NewMemory("https://blobs.test")}
}

func (s *spyBlobs) Upload(ctx context.Context, path string, body io.Reader, contentType string) error {
	s.mu.Lock()
	s.uploads = append(s.uploads, path)
	s.mu.Unlock()
	if s.uploadErr != nil {
		if err := s.uploadErr(path); err != nil {
			return err
		}
	}
	return s.Memory.Upload(ctx, path, body, contentType)
}

func (s *spyBlobs) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, ref)
	s.mu.Unlock()
	if s.deleteErr != nil {
		if err := s.deleteErr(ref); err != nil {
			return err
		}
	}
	return s.Memory.Delete(ctx, ref)
}

func (s *spyBlobs) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads) + len(s.deletes)
}

// ---- helpers ---------------------------------------------------------------

var t0 = time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)

// steppingClock starts at t0 and advances one second per call, so created and
// updated timestamps are distinguishable.
func steppingClock() service.Clock {
	var mu sync.Mutex
	now := t0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jpeg(name string) service.Attachment {
	return service.BytesAttachment(name, "image/jpeg", []byte("bytes of "+name))
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	docs    *spyDocs
	blobs   *spyBlobs
	trips   *service.TripService
	journal *service.JournalService
	food    *service.FoodLogService
}

func newFixture() *fixture {
	docs := &spyDocs{Store: docstore.NewMemory()}
	blobs := newSpyBlobs()
	clock := steppingClock()
	log := discardLogger()
	return &fixture{
		docs:    docs,
		blobs:   blobs,
		trips:   service.NewTripService(docs, log, clock),
		journal: service.NewJournalService(docs, blobs, log, clock),
		food:    service.NewFoodLogService(docs, blobs, log, clock),
	}
}

// remoteCalls is the total number of calls made to either store.
func (f *fixture) remoteCalls() int {
	return f.docs.Calls() + f.blobs.Calls()
}
