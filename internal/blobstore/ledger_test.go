package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestLedger_RollbackRemovesAllWrites(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	ledger := NewLedger(mem, testLogger(), nil)

	for _, key := range []string{"records/r/a", "records/r/b", "records/r/c"} {
		if err := ledger.Put(ctx, "media", key, []byte("data"), "text/plain"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if ledger.Tracked() != 3 {
		t.Fatalf("tracked = %d, want 3", ledger.Tracked())
	}

	ledger.Rollback(ctx)

	if mem.Len() != 0 {
		t.Errorf("store holds %d objects after rollback, want 0", mem.Len())
	}
	if ledger.Tracked() != 0 {
		t.Errorf("tracked = %d after rollback, want 0", ledger.Tracked())
	}
}

func TestLedger_CopyIsTracked(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	if err := mem.Put(ctx, "staging", "incoming/x", []byte("data"), "image/png"); err != nil {
		t.Fatal(err)
	}

	ledger := NewLedger(mem, testLogger(), nil)
	if err := ledger.Copy(ctx, "staging", "incoming/x", "media", "records/r/x"); err != nil {
		t.Fatalf("copy: %v", err)
	}

	ledger.Rollback(ctx)

	if ok, _ := mem.Exists(ctx, "media", "records/r/x"); ok {
		t.Error("copied object survived rollback")
	}
	if ok, _ := mem.Exists(ctx, "staging", "incoming/x"); !ok {
		t.Error("rollback deleted the copy source")
	}
}

func TestLedger_PutFailureNotTracked(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	failing := &faultStore{ObjectStore: mem, failPut: true}
	ledger := NewLedger(failing, testLogger(), nil)

	if err := ledger.Put(ctx, "media", "records/r/a", []byte("data"), "text/plain"); err == nil {
		t.Fatal("expected put error")
	}
	if ledger.Tracked() != 0 {
		t.Errorf("tracked = %d after failed put, want 0", ledger.Tracked())
	}
}

func TestLedger_RollbackSwallowsDeleteFailures(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	failing := &faultStore{ObjectStore: mem}
	ledger := NewLedger(failing, testLogger(), nil)

	if err := ledger.Put(ctx, "media", "records/r/a", []byte("data"), "text/plain"); err != nil {
		t.Fatal(err)
	}

	failing.failDelete = true
	ledger.Rollback(ctx)
}

func TestLedger_FailedDeleteInvokesHook(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	failing := &faultStore{ObjectStore: mem}

	var orphans []string
	ledger := NewLedger(failing, testLogger(), func(bucket, key string) {
		orphans = append(orphans, bucket+"/"+key)
	})

	if err := ledger.Put(ctx, "media", "records/r/a", []byte("data"), "text/plain"); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Put(ctx, "media", "records/r/b", []byte("data"), "text/plain"); err != nil {
		t.Fatal(err)
	}

	failing.failDelete = true
	ledger.Rollback(ctx)

	if len(orphans) != 2 {
		t.Fatalf("hook called %d times, want 2: %v", len(orphans), orphans)
	}
	if orphans[0] != "media/records/r/b" {
		t.Errorf("rollback order wrong, first orphan = %s", orphans[0])
	}
}

type faultStore struct {
	ObjectStore
	failPut    bool
	failDelete bool
}

func (f *faultStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if f.failPut {
		return errors.New("injected put failure")
	}

	return f.ObjectStore.Put(ctx, bucket, key, data, contentType)
}

func (f *faultStore) Delete(ctx context.Context, bucket, key string) error {
	if f.failDelete {
		return errors.New("injected delete failure")
	}

	return f.ObjectStore.Delete(ctx, bucket, key)
}
