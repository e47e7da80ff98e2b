package repo

import (
	"errors"
	"reflect"
	"testing"

	"github.com/grit-vcs/grit/pkg/object"
)

func TestLightweightTag(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	if err := r.CreateTag("v1.0", c1, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	h, err := r.ResolveTag("v1.0")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if h != c1 {
		t.Errorf("v1.0 = %s, want %s", h, c1)
	}

	// A lightweight tag points straight at the commit.
	objType, _, err := r.Store.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != object.TypeCommit {
		t.Errorf("target type = %s", objType)
	}
}

func TestAnnotatedTag(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	tagHash, err := r.CreateAnnotatedTag("v1.0", c1, "Test User <test@example.com>", "first release", false)
	if err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}

	refTarget, err := r.ResolveTag("v1.0")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if refTarget != tagHash {
		t.Errorf("ref = %s, want tag object %s", refTarget, tagHash)
	}

	tag, err := r.Store.ReadTag(tagHash)
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if tag.TargetHash != c1 || tag.TargetType != object.TypeCommit {
		t.Errorf("tag target = %s (%s)", tag.TargetHash, tag.TargetType)
	}
	if tag.Name != "v1.0" || tag.Message != "first release" {
		t.Errorf("tag = %+v", tag)
	}
	if tag.Tagger != "Test User <test@example.com>" {
		t.Errorf("tagger = %q", tag.Tagger)
	}
}

func TestTagAlreadyExists(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	c2 := commitFile(t, r, dir, "a.txt", "two\n", "c2")

	if err := r.CreateTag("v1", c1, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := r.CreateTag("v1", c2, false); err == nil {
		t.Fatal("duplicate tag should fail without force")
	}
	if err := r.CreateTag("v1", c2, true); err != nil {
		t.Fatalf("forced retag: %v", err)
	}
	if h, _ := r.ResolveTag("v1"); h != c2 {
		t.Errorf("v1 = %s, want %s after force", h, c2)
	}
}

func TestDeleteTag(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	if err := r.CreateTag("v1", c1, false); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := r.DeleteTag("v1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if _, err := r.ResolveTag("v1"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("resolve after delete = %v", err)
	}
	if err := r.DeleteTag("v1"); err == nil {
		t.Error("deleting a missing tag should fail")
	}
}

func TestListTags(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	for _, name := range []string{"v2", "beta", "v1"} {
		if err := r.CreateTag(name, c1, false); err != nil {
			t.Fatalf("CreateTag(%s): %v", name, err)
		}
	}

	names, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"beta", "v1", "v2"}) {
		t.Errorf("tags = %v", names)
	}

	byHash, err := r.ListTagsWithHashes()
	if err != nil {
		t.Fatalf("ListTagsWithHashes: %v", err)
	}
	if len(byHash) != 3 || byHash["v1"] != c1 {
		t.Errorf("tags with hashes = %v", byHash)
	}
}

func TestTagNameValidation(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	for _, name := range []string{"", "/bad", "bad/", "a..b", "has space", "nl\nname"} {
		if err := r.CreateTag(name, c1, false); err == nil {
			t.Errorf("CreateTag(%q) accepted an invalid name", name)
		}
	}
	// Slashes inside a name are fine (release/v1 style).
	if err := r.CreateTag("release/v1", c1, false); err != nil {
		t.Errorf("CreateTag(release/v1): %v", err)
	}
}
