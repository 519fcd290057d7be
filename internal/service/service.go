// Package service contains the entity repositories for trips, journal entries
// and food log entries. Services validate inputs, upload photo attachments to
// the blob store in order, and persist documents. No storage details live
// here: services depend on the docstore and blobstore interfaces only.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
)

// Collection names in the document store.
const (
	TripsCollection   = "trips"
	JournalCollection = "journal_entries"
	FoodLogCollection = "food_logs"
)

// Blob path namespaces.
const (
	TripPhotoPrefix    = "trips"
	JournalPhotoPrefix = "journals"
	FoodPhotoPrefix    = "food_photos"
)

// Attachment is a photo supplied by the caller. Open is called once, right
// before the upload, and the returned reader is closed afterwards.
type Attachment struct {
	FileName    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// BytesAttachment wraps an in-memory photo.
func BytesAttachment(fileName, contentType string, data []byte) Attachment {
	return Attachment{
		FileName:    fileName,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// remote marks err as a failed remote write unless it is a not-found.
func remote(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteWrite, err)
}

// ---- document codec --------------------------------------------------------

// encode flattens an entity into a document body. The id is the store key
// and never part of the body.
func encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	delete(out, "id")
	return out, nil
}

func decode[T any](id string, data map[string]any) (T, error) {
	var out T
	body := docstore.Merge(data, map[string]any{"id": id})
	raw, err := json.Marshal(body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document %s: %w", id, err)
	}
	return out, nil
}

// collection binds a docstore collection to an entity type.
type collection[T any] struct {
	docs      docstore.Store
	name      string
	dateField string
}

// list returns the owner's documents, newest first, ties by id ascending.
func (c collection[T]) list(ctx context.Context, ownerID string, tripID *string) ([]T, error) {
	q := docstore.Query{
		Collection: c.name,
		OrderBy:    []docstore.Order{{Field: c.dateField, Desc: true}},
	}.Where("ownerId", docstore.Eq, ownerID)
	if tripID != nil {
		q = q.Where("tripId", docstore.Eq, *tripID)
	}

	docs, err := c.docs.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T](d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c collection[T]) get(ctx context.Context, id string) (T, docstore.Document, error) {
	var zero T
	doc, err := c.docs.Get(ctx, c.name, id)
	if err != nil {
		return zero, docstore.Document{}, err
	}
	v, err := decode[T](doc.ID, doc.Data)
	if err != nil {
		return zero, docstore.Document{}, err
	}
	return v, doc, nil
}

// update writes fields and returns the entity as it now reads, computed from
// the document loaded before the write.
func (c collection[T]) update(ctx context.Context, doc docstore.Document, fields map[string]any) (T, error) {
	var zero T
	patch, err := encode(fields)
	if err != nil {
		return zero, err
	}
	if err := c.docs.Update(ctx, c.name, doc.ID, patch); err != nil {
		return zero, err
	}
	return decode[T](doc.ID, docstore.Merge(doc.Data, patch))
}

// ---- photos ----------------------------------------------------------------

// photos uploads attachments and deletes blobs for one path namespace.
type photos struct {
	blobs  blobstore.Store
	prefix string
	clock  Clock
	log    *slog.Logger
}

// upload stores attachments strictly in input order under
// <prefix>/<ownerID>/<entryID>/ and returns their URLs in the same order.
// Every call names its files with a fresh batch id, so an upload never
// overwrites a photo the entry already has. On failure the blobs uploaded so
// far are left in place and logged.
func (p photos) upload(ctx context.Context, ownerID, entryID string, atts []Attachment) ([]string, error) {
	urls := make([]string, 0, len(atts))
	stamp := p.clock.now().UnixMilli()
	batch := uuid.NewString()

	for i, att := range atts {
		key := path.Join(p.prefix, ownerID, entryID, fileName(stamp, batch, i, att))
		if err := p.put(ctx, key, att); err != nil {
			p.logOrphans(urls, err)
			return nil, fmt.Errorf("upload %s: %w: %w", key, domain.ErrRemoteWrite, err)
		}
		u, err := p.blobs.URL(ctx, key)
		if err != nil {
			p.logOrphans(urls, err)
			return nil, fmt.Errorf("url %s: %w: %w", key, domain.ErrRemoteWrite, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (p photos) put(ctx context.Context, key string, att Attachment) error {
	if att.Open == nil {
		return errors.New("attachment has no content")
	}
	body, err := att.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	contentType := att.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return p.blobs.Upload(ctx, key, body, contentType)
}

// logOrphans records blobs left behind by a failed operation.
func (p photos) logOrphans(urls []string, cause error) {
	if len(urls) == 0 {
		return
	}
	p.log.Warn("photos uploaded but not referenced by any document",
		"prefix", p.prefix,
		"urls", urls,
		"error", cause,
	)
}

// deleteAll removes every blob, logging failures instead of returning them.
func (p photos) deleteAll(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := p.blobs.Delete(ctx, u); err != nil {
			p.log.Warn("failed to delete photo", "url", u, "error", err)
		}
	}
}

// fileName is photo_<unixMillis>_<batch>_<index><ext>. The extension comes
// from the original file name and defaults to .jpg.
func fileName(stamp int64, batch string, index int, att Attachment) string {
	ext := strings.ToLower(path.Ext(att.FileName))
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return fmt.Sprintf("photo_%d_%s_%d%s", stamp, batch, index, ext)
}

// retainPhotos checks retained against the stored photos and returns the
// photos to keep plus the stored photos that are no longer referenced. A nil
// retained keeps every stored photo.
func retainPhotos(stored, retained []string) (kept, dropped []string, err error) {
	if retained == nil {
		return append([]string{}, stored...), nil, nil
	}
	storedSet := make(map[string]bool, len(stored))
	for _, s := range stored {
		storedSet[s] = true
	}
	keep := make(map[string]bool, len(retained))
	for _, r := range retained {
		if !storedSet[r] {
			return nil, nil, domain.NewValidationError("photos", "retained photo does not belong to this entry: "+r)
		}
		keep[r] = true
	}
	for _, s := range stored {
		if !keep[s] {
			dropped = append(dropped, s)
		}
	}
	return append([]string{}, retained...), dropped, nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domain.NewValidationError("ownerId", "required")
	}
	return nil
}
