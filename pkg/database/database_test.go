package database

import (
	"testing"
	"time"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tag"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
	store "aether.dev/pkg/interfaces/store"
	"aether.dev/pkg/utils/context"
)

func newTestStore(t *testing.T) *D {
	t.Helper()
	ctx, cancel := context.Cancel(context.Bg())
	d, err := New(ctx, cancel, "", 0, true)
	if err != nil {
		t.Fatalf("New() errored: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})
	return d
}

func signedEvent(t *testing.T, k kind.K, created timestamp.T, ts ...*tag.T) (*event.E, *crypto.Signer) {
	t.Helper()
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}
	ev := event.New()
	ev.CreatedAt = created
	ev.Kind = k
	ev.Tags = tags.New(ts...)
	ev.Content = []byte("x")
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev, &s
}

func TestPutImmutableRejectsDuplicateId(t *testing.T) {
	d := newTestStore(t)
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())

	res, err := d.Put(context.Bg(), ev)
	if err != nil || res.Result != store.Inserted {
		t.Fatalf("first Put() = %+v, err %v, want Inserted", res, err)
	}
	res, err = d.Put(context.Bg(), ev)
	if err != nil || res.Result != store.Duplicate {
		t.Fatalf("second Put() of the same event = %+v, err %v, want Duplicate", res, err)
	}
}

func TestPutReplaceableKeepsOnlyNewestPerPubkeyKind(t *testing.T) {
	d := newTestStore(t)
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}

	older := event.New()
	older.Pubkey = s.Pub()
	older.CreatedAt = timestamp.New(1000)
	older.Kind = kind.New(10000)
	older.Tags = tags.New()
	older.Content = []byte("old")
	if err := older.Sign(&s); err != nil {
		t.Fatalf("sign older: %v", err)
	}

	newer := event.New()
	newer.Pubkey = s.Pub()
	newer.CreatedAt = timestamp.New(2000)
	newer.Kind = kind.New(10000)
	newer.Tags = tags.New()
	newer.Content = []byte("new")
	if err := newer.Sign(&s); err != nil {
		t.Fatalf("sign newer: %v", err)
	}

	if res, err := d.Put(context.Bg(), older); err != nil || res.Result != store.Inserted {
		t.Fatalf("Put(older) = %+v, err %v, want Inserted", res, err)
	}
	res, err := d.Put(context.Bg(), newer)
	if err != nil || res.Result != store.Replaced {
		t.Fatalf("Put(newer) = %+v, err %v, want Replaced", res, err)
	}

	results, err := d.Query(context.Bg(), filter.New())
	if err != nil {
		t.Fatalf("Query() errored: %v", err)
	}
	if len(results) != 1 || string(results[0].Id) != string(newer.Id) {
		t.Fatalf("expected only the newer replaceable event to remain, got %d events", len(results))
	}
}

func TestPutDoesNotPersistEphemeralEvents(t *testing.T) {
	d := newTestStore(t)
	ev, _ := signedEvent(t, kind.New(20000), timestamp.Now())
	res, err := d.Put(context.Bg(), ev)
	if err != nil || res.Result != store.Inserted {
		t.Fatalf("Put() = %+v, err %v, want Inserted", res, err)
	}
	n, err := d.EventCount()
	if err != nil || n != 0 {
		t.Errorf("ephemeral events must not be persisted, EventCount() = %d, err %v", n, err)
	}
}

func TestDeleteByAuthorRemovesReferencedEvent(t *testing.T) {
	d := newTestStore(t)
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}

	target := event.New()
	target.Pubkey = s.Pub()
	target.CreatedAt = timestamp.New(1000)
	target.Kind = kind.New(1)
	target.Tags = tags.New()
	target.Content = []byte("delete me")
	if err := target.Sign(&s); err != nil {
		t.Fatalf("sign target: %v", err)
	}
	if _, err := d.Put(context.Bg(), target); err != nil {
		t.Fatalf("Put(target) errored: %v", err)
	}

	deletion := event.New()
	deletion.Pubkey = s.Pub()
	deletion.CreatedAt = timestamp.New(2000)
	deletion.Kind = kind.Tombstone
	deletion.Tags = tags.New(tag.New("e", string(target.Id)))
	deletion.Content = []byte("")
	if err := deletion.Sign(&s); err != nil {
		t.Fatalf("sign deletion: %v", err)
	}

	if err := d.Delete(context.Bg(), deletion); err != nil {
		t.Fatalf("Delete() errored: %v", err)
	}
	n, err := d.EventCount()
	if err != nil || n != 0 {
		t.Errorf("expected the targeted event to be removed, EventCount() = %d, err %v", n, err)
	}
}

func TestDeleteRejectsNonAuthorWithoutOwnerOverride(t *testing.T) {
	d := newTestStore(t)
	var author, attacker crypto.Signer
	if err := author.Generate(); err != nil {
		t.Fatalf("generate author: %v", err)
	}
	if err := attacker.Generate(); err != nil {
		t.Fatalf("generate attacker: %v", err)
	}

	target := event.New()
	target.Pubkey = author.Pub()
	target.CreatedAt = timestamp.New(1000)
	target.Kind = kind.New(1)
	target.Tags = tags.New()
	target.Content = []byte("mine")
	if err := target.Sign(&author); err != nil {
		t.Fatalf("sign target: %v", err)
	}
	if _, err := d.Put(context.Bg(), target); err != nil {
		t.Fatalf("Put(target) errored: %v", err)
	}

	deletion := event.New()
	deletion.Pubkey = attacker.Pub()
	deletion.CreatedAt = timestamp.New(2000)
	deletion.Kind = kind.Tombstone
	deletion.Tags = tags.New(tag.New("e", string(target.Id)))
	deletion.Content = []byte("")
	if err := deletion.Sign(&attacker); err != nil {
		t.Fatalf("sign deletion: %v", err)
	}

	if err := d.Delete(context.Bg(), deletion); err == nil {
		t.Error("Delete() should reject a deletion from a non-author with no owner override")
	}
	n, err := d.EventCount()
	if err != nil || n != 1 {
		t.Errorf("the targeted event should survive an unauthorized deletion, EventCount() = %d, err %v", n, err)
	}
}

func TestDeleteWithOwnersAllowsOwnerOverride(t *testing.T) {
	d := newTestStore(t)
	var author, owner crypto.Signer
	if err := author.Generate(); err != nil {
		t.Fatalf("generate author: %v", err)
	}
	if err := owner.Generate(); err != nil {
		t.Fatalf("generate owner: %v", err)
	}

	target := event.New()
	target.Pubkey = author.Pub()
	target.CreatedAt = timestamp.New(1000)
	target.Kind = kind.New(1)
	target.Tags = tags.New()
	target.Content = []byte("mine")
	if err := target.Sign(&author); err != nil {
		t.Fatalf("sign target: %v", err)
	}
	if _, err := d.Put(context.Bg(), target); err != nil {
		t.Fatalf("Put(target) errored: %v", err)
	}

	deletion := event.New()
	deletion.Pubkey = owner.Pub()
	deletion.CreatedAt = timestamp.New(2000)
	deletion.Kind = kind.Tombstone
	deletion.Tags = tags.New(tag.New("e", string(target.Id)))
	deletion.Content = []byte("")
	if err := deletion.Sign(&owner); err != nil {
		t.Fatalf("sign deletion: %v", err)
	}

	if err := d.DeleteWithOwners(deletion, [][]byte{owner.Pub()}); err != nil {
		t.Fatalf("DeleteWithOwners() should allow a listed owner to delete, got: %v", err)
	}
	n, err := d.EventCount()
	if err != nil || n != 0 {
		t.Errorf("expected the owner-authorized deletion to remove the event, EventCount() = %d, err %v", n, err)
	}
}

func TestTombstoneRefusesLateRepublish(t *testing.T) {
	d := newTestStore(t)
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}

	target := event.New()
	target.Pubkey = s.Pub()
	target.CreatedAt = timestamp.New(1000)
	target.Kind = kind.New(1)
	target.Tags = tags.New()
	target.Content = []byte("x")
	if err := target.Sign(&s); err != nil {
		t.Fatalf("sign target: %v", err)
	}
	if _, err := d.Put(context.Bg(), target); err != nil {
		t.Fatalf("Put(target) errored: %v", err)
	}

	deletion := event.New()
	deletion.Pubkey = s.Pub()
	deletion.CreatedAt = timestamp.New(2000)
	deletion.Kind = kind.Tombstone
	deletion.Tags = tags.New(tag.New("e", string(target.Id)))
	deletion.Content = []byte("")
	if err := deletion.Sign(&s); err != nil {
		t.Fatalf("sign deletion: %v", err)
	}
	if err := d.Delete(context.Bg(), deletion); err != nil {
		t.Fatalf("Delete() errored: %v", err)
	}

	res, err := d.Put(context.Bg(), target)
	if err != nil {
		t.Fatalf("republish attempt errored: %v", err)
	}
	if res.Result != store.Duplicate {
		t.Errorf("republishing a tombstoned event_id should be refused as Duplicate, got %+v", res)
	}
}

func TestWipeRemovesEverything(t *testing.T) {
	d := newTestStore(t)
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	if _, err := d.Put(context.Bg(), ev); err != nil {
		t.Fatalf("Put() errored: %v", err)
	}
	if err := d.Wipe(); err != nil {
		t.Fatalf("Wipe() errored: %v", err)
	}
	n, err := d.EventCount()
	if err != nil || n != 0 {
		t.Errorf("expected zero events after Wipe(), got %d, err %v", n, err)
	}
}

func TestQueryFiltersByKind(t *testing.T) {
	d := newTestStore(t)
	noteEv, _ := signedEvent(t, kind.New(1), timestamp.New(uint64(time.Now().UnixNano())))
	profileEv, _ := signedEvent(t, kind.New(0), timestamp.New(uint64(time.Now().UnixNano())+1))
	if _, err := d.Put(context.Bg(), noteEv); err != nil {
		t.Fatalf("Put(note) errored: %v", err)
	}
	if _, err := d.Put(context.Bg(), profileEv); err != nil {
		t.Fatalf("Put(profile) errored: %v", err)
	}

	f := filter.New()
	f.Kinds = []kind.K{kind.New(1)}
	results, err := d.Query(context.Bg(), f)
	if err != nil {
		t.Fatalf("Query() errored: %v", err)
	}
	if len(results) != 1 || string(results[0].Id) != string(noteEv.Id) {
		t.Fatalf("expected only the kind-1 event, got %d results", len(results))
	}
}
