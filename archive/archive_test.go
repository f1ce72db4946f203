package archive

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ardnew/ytsub/script"
)

func open(t *testing.T, opts ...Option) *Archive {
	t.Helper()

	a, err := Open(t.Context(), filepath.Join(t.TempDir(), "archive.db"), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	t.Cleanup(func() { _ = a.Close() })

	return a
}

func TestArchive_RecordHasList(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := open(t, WithClock(func() time.Time { return now }))
	run := uuid.New()

	records := []Record{
		{RunID: run, Subscription: "Nature", UID: "b", OutputPath: "/m/b.mp4", UploadDate: "20210102"},
		{RunID: run, Subscription: "Nature", UID: "a", OutputPath: "/m/a.mp4", UploadDate: "20210102"},
		{RunID: run, Subscription: "Nature", UID: "c", OutputPath: "/m/c.mp4", UploadDate: "20200101"},
		{RunID: run, Subscription: "Music", UID: "a", OutputPath: "/x/a.mp3", Extractor: "soundcloud"},
	}

	for _, r := range records {
		if err := a.Record(ctx, r); err != nil {
			t.Fatalf("Record(%s/%s): %v", r.Subscription, r.UID, err)
		}
	}

	tests := []struct {
		subscription, uid string
		want              bool
	}{
		{"Nature", "a", true},
		{"Music", "a", true},
		{"Music", "b", false},
		{"Other", "a", false},
	}

	for _, tt := range tests {
		got, err := a.Has(ctx, tt.subscription, tt.uid)
		if err != nil {
			t.Fatalf("Has: %v", err)
		}

		if got != tt.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tt.subscription, tt.uid, got, tt.want)
		}
	}

	list, err := a.List(ctx, "Nature")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var uids []string
	for _, r := range list {
		uids = append(uids, r.UID)

		if r.RunID != run {
			t.Errorf("%s: run id = %v, want %v", r.UID, r.RunID, run)
		}

		if !r.RecordedAt.Equal(now) {
			t.Errorf("%s: recorded at %v, want %v", r.UID, r.RecordedAt, now)
		}
	}

	if want := []string{"c", "a", "b"}; !slices.Equal(uids, want) {
		t.Errorf("List order = %v, want %v", uids, want)
	}

	all, err := a.List(ctx, "")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}

	if len(all) != 4 || all[0].Subscription != "Music" {
		t.Errorf("List all = %+v", all)
	}
}

func TestArchive_RecordReplaces(t *testing.T) {
	ctx := t.Context()
	a := open(t)

	first, second := uuid.New(), uuid.New()

	for _, r := range []Record{
		{RunID: first, Subscription: "S", UID: "x", OutputPath: "/old"},
		{RunID: second, Subscription: "S", UID: "x", OutputPath: "/new"},
	} {
		if err := a.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	list, err := a.List(ctx, "S")
	if err != nil {
		t.Fatal(err)
	}

	if len(list) != 1 || list[0].OutputPath != "/new" || list[0].RunID != second {
		t.Errorf("List = %+v", list)
	}
}

func TestArchive_RecordMany(t *testing.T) {
	ctx := t.Context()
	a := open(t)
	run := uuid.New()

	if err := a.Record(ctx); err != nil {
		t.Fatalf("Record() with no records: %v", err)
	}

	err := a.Record(ctx,
		Record{RunID: run, Subscription: "S", UID: "x", OutputPath: "/x"},
		Record{RunID: run, Subscription: "S", UID: "y", OutputPath: "/y"},
		Record{RunID: run, Subscription: "S", UID: "x", OutputPath: "/x2"},
	)
	if err != nil {
		t.Fatal(err)
	}

	list, err := a.List(ctx, "S")
	if err != nil {
		t.Fatal(err)
	}

	if len(list) != 2 || list[0].OutputPath != "/x2" || list[1].OutputPath != "/y" {
		t.Errorf("List = %+v", list)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	err = a.Record(canceled,
		Record{RunID: run, Subscription: "T", UID: "x", OutputPath: "/x"},
		Record{RunID: run, Subscription: "T", UID: "y", OutputPath: "/y"},
	)
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("Record() with canceled context error = %v, want ErrArchive", err)
	}

	if list, err := a.List(ctx, "T"); err != nil || len(list) != 0 {
		t.Errorf("List = %+v, %v, want no records", list, err)
	}
}

func TestArchive_Reopen(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "archive.db")

	a, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Record(ctx, Record{RunID: uuid.New(), Subscription: "S", UID: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if ok, err := b.Has(ctx, "S", "x"); err != nil || !ok {
		t.Errorf("Has after reopen = %v, %v", ok, err)
	}
}

func TestArchive_ConcurrentRecords(t *testing.T) {
	ctx := t.Context()
	a := open(t)
	run := uuid.New()

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Go(func() {
			r := Record{RunID: run, Subscription: "S", UID: string(rune('a' + i))}
			if err := a.Record(ctx, r); err != nil {
				t.Errorf("Record: %v", err)
			}
		})
	}

	wg.Wait()

	list, err := a.List(ctx, "S")
	if err != nil {
		t.Fatal(err)
	}

	if len(list) != 20 {
		t.Errorf("got %d records, want 20", len(list))
	}
}

func TestOpen_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "archive.db")

	_, err := Open(context.Background(), path)
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("Open(%q) error = %v, want ErrArchive", path, err)
	}

	var se *script.Error
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *script.Error", err)
	}

	if v, ok := se.Attr("archive"); !ok || v.String() != path {
		t.Errorf("archive attribute = %v, %v", v, ok)
	}
}
