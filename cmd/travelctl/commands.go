package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/riyahid/travel-go/internal/service"
	"github.com/riyahid/travel-go/internal/session"
)

// photoFlags collects repeated -photo paths.
type photoFlags []string

func (p *photoFlags) String() string     { return strings.Join(*p, ",") }
func (p *photoFlags) Set(v string) error { *p = append(*p, v); return nil }

// attachments opens nothing up front; each file is read when the service
// uploads it.
func (p photoFlags) attachments() []service.Attachment {
	atts := make([]service.Attachment, 0, len(p))
	for _, path := range p {
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		atts = append(atts, service.Attachment{
			FileName:    filepath.Base(path),
			ContentType: contentType,
			Open:        func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	return atts
}

// command holds the flags shared by every subcommand.
type command struct {
	fs     *flag.FlagSet
	id     *string
	trip   *string
	body   *string
	photos photoFlags
}

func newCommand(name string) *command {
	c := &command{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.id = c.fs.String("id", "", "record id")
	c.trip = c.fs.String("trip", "", "trip id filter")
	c.body = c.fs.String("json", "", "request body as JSON, or @file to read it from a file")
	c.fs.Var(&c.photos, "photo", "photo file to upload (repeatable)")
	return c
}

func (c *command) requireID() (string, error) {
	if *c.id == "" {
		return "", fmt.Errorf("%s: -id is required", c.fs.Name())
	}
	return *c.id, nil
}

func (c *command) tripFilter() *string {
	if *c.trip == "" {
		return nil
	}
	return c.trip
}

// decode reads the -json body into v. Unknown fields are rejected.
func (c *command) decode(v any) error {
	raw := *c.body
	if raw == "" {
		return fmt.Errorf("%s: -json is required", c.fs.Name())
	}
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", c.fs.Name(), err)
		}
		raw = string(data)
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: invalid -json: %w", c.fs.Name(), err)
	}
	return nil
}

// retainedBody mirrors the PATCH body of the API: a missing retainedPhotos
// keeps every stored photo.
type retainedBody struct {
	RetainedPhotos *[]string `json:"retainedPhotos,omitempty"`
}

func (r retainedBody) list() []string {
	if r.RetainedPhotos == nil {
		return nil
	}
	return *r.RetainedPhotos
}

func dispatch(ctx context.Context, s *session.Session, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	group, name := args[0], args[1]
	c := newCommand(group + " " + name)
	c.fs.SetOutput(io.Discard)
	if err := c.fs.Parse(args[2:]); err != nil {
		return err
	}

	var err error
	switch group {
	case "trips":
		err = tripCommand(ctx, s, name, c)
		if err == nil {
			return printJSON(out, s.Trips.Snapshot())
		}
	case "journal":
		err = journalCommand(ctx, s, name, c)
		if err == nil {
			return printJSON(out, s.Journal.Snapshot())
		}
	case "food":
		err = foodCommand(ctx, s, name, c)
		if err == nil {
			return printJSON(out, s.FoodLogs.Snapshot())
		}
	default:
		return errUsage
	}
	return err
}

func tripCommand(ctx context.Context, s *session.Session, name string, c *command) error {
	switch name {
	case "list":
		_, err := s.LoadTrips(ctx)
		return err
	case "show":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		if _, err := s.LoadTrips(ctx); err != nil {
			return err
		}
		s.SelectTrip(id)
		if s.Trips.Snapshot().Current == nil {
			return fmt.Errorf("trip %q not found", id)
		}
		return nil
	case "create":
		var in service.CreateTripInput
		if err := c.decode(&in); err != nil {
			return err
		}
		_, err := s.CreateTrip(ctx, in)
		return err
	case "update":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		var patch service.TripPatch
		if err := c.decode(&patch); err != nil {
			return err
		}
		_, err = s.UpdateTrip(ctx, id, patch)
		return err
	case "delete":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		_, err = s.RemoveTrip(ctx, id)
		return err
	case "add-activity":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		var in service.AddActivityInput
		if err := c.decode(&in); err != nil {
			return err
		}
		_, err = s.AddActivity(ctx, id, in)
		return err
	case "remove-activity":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		var body struct {
			ActivityID string `json:"activityId"`
		}
		if err := c.decode(&body); err != nil {
			return err
		}
		_, err = s.RemoveActivity(ctx, id, body.ActivityID)
		return err
	}
	return fmt.Errorf("unknown trips command %q", name)
}

func journalCommand(ctx context.Context, s *session.Session, name string, c *command) error {
	switch name {
	case "list":
		_, err := s.LoadJournal(ctx, c.tripFilter())
		return err
	case "create":
		var in service.CreateJournalInput
		if err := c.decode(&in); err != nil {
			return err
		}
		_, err := s.CreateJournalEntry(ctx, in, c.photos.attachments())
		return err
	case "update":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		var body struct {
			service.JournalPatch
			retainedBody
		}
		if err := c.decode(&body); err != nil {
			return err
		}
		_, err = s.UpdateJournalEntry(ctx, id, body.JournalPatch, c.photos.attachments(), body.list())
		return err
	case "delete":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		_, err = s.RemoveJournalEntry(ctx, id)
		return err
	}
	return fmt.Errorf("unknown journal command %q", name)
}

func foodCommand(ctx context.Context, s *session.Session, name string, c *command) error {
	switch name {
	case "list":
		_, err := s.LoadFoodLogs(ctx, c.tripFilter())
		return err
	case "create":
		var in service.CreateFoodLogInput
		if err := c.decode(&in); err != nil {
			return err
		}
		_, err := s.CreateFoodLog(ctx, in, c.photos.attachments())
		return err
	case "update":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		var body struct {
			service.FoodLogPatch
			retainedBody
		}
		if err := c.decode(&body); err != nil {
			return err
		}
		_, err = s.UpdateFoodLog(ctx, id, body.FoodLogPatch, c.photos.attachments(), body.list())
		return err
	case "delete":
		id, err := c.requireID()
		if err != nil {
			return err
		}
		_, err = s.RemoveFoodLog(ctx, id)
		return err
	}
	return fmt.Errorf("unknown food command %q", name)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Join(errors.New("writing output"), err)
	}
	return nil
}
