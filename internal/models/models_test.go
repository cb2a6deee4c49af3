package models

import (
	"errors"
	"testing"
	"time"
)

func TestSets(t *testing.T) {
	t.Run("Extensions", func(t *testing.T) {
		exts := NewExtensions(".mp3", ".flac", ".mp3")

		if len(exts) != 2 {
			t.Errorf("expected duplicates to collapse, got %d entries", len(exts))
		}
		if !exts.Has(".mp3") {
			t.Error("expected .mp3 to be supported")
		}
		if exts.Has(".MP3") || exts.Has("mp3") {
			t.Error("matching must be exact, including case and leading dot")
		}
		if got := exts.Sorted(); len(got) != 2 || got[0] != ".flac" || got[1] != ".mp3" {
			t.Errorf("Sorted() = %v", got)
		}
	})

	t.Run("FingerprintSet", func(t *testing.T) {
		set := NewFingerprintSet("abc", "def")

		if !set.Contains("abc") {
			t.Error("expected abc to be present")
		}
		if set.Contains("xyz") {
			t.Error("did not expect xyz to be present")
		}

		var empty FingerprintSet
		if empty.Contains("abc") {
			t.Error("nil set must not contain anything")
		}
	})
}

func TestResults(t *testing.T) {
	t.Run("constructors", func(t *testing.T) {
		up := UploadedResult("/m/a.mp3", 42)
		if up.Outcome != Uploaded || up.Stage != StageDone || up.TrackID != 42 {
			t.Errorf("unexpected uploaded result: %+v", up)
		}

		sk := SkippedResult("/m/b.mp3", "hash")
		if sk.Outcome != Skipped || sk.Fingerprint != "hash" {
			t.Errorf("unexpected skipped result: %+v", sk)
		}

		err := errors.New("boom")
		fl := FailedResult("/m/c.mp3", StageTagging, 7, "Failed to apply tag.", err, map[string]string{"tag": "Rock"})
		if fl.Outcome != Failed || fl.Stage != StageTagging || fl.TrackID != 7 {
			t.Errorf("unexpected failed result: %+v", fl)
		}
		if fl.Detail["message"] != "boom" || fl.Detail["tag"] != "Rock" {
			t.Errorf("unexpected detail: %v", fl.Detail)
		}
		if keys := fl.DetailKeys(); len(keys) != 2 || keys[0] != "message" {
			t.Errorf("DetailKeys() = %v", keys)
		}
	})

	t.Run("failed without detail or error", func(t *testing.T) {
		fl := FailedResult("/m/c.mp3", StageUploading, 0, "File upload failed.", nil, nil)
		if fl.Detail == nil || len(fl.Detail) != 0 {
			t.Errorf("expected empty detail map, got %v", fl.Detail)
		}
	})

	t.Run("Run", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		run := &Run{
			StartedAt:  start,
			FinishedAt: start.Add(90 * time.Second),
			Uploaded:   []Result{UploadedResult("/m/c.mp3", 1)},
			Skipped:    []Result{SkippedResult("/m/a.mp3", "h")},
			Errors:     []Result{FailedResult("/m/b.mp3", StageUploading, 0, "x", nil, nil)},
		}

		if run.Duration() != 90*time.Second {
			t.Errorf("Duration() = %v", run.Duration())
		}

		all := run.Results()
		if len(all) != 3 || all[0].Path != "/m/a.mp3" || all[1].Path != "/m/b.mp3" || all[2].Path != "/m/c.mp3" {
			t.Errorf("Results() not sorted by path: %+v", all)
		}
	})
}

func TestStrings(t *testing.T) {
	if Failed.String() != "error" || Uploaded.String() != "uploaded" || Skipped.String() != "skipped" {
		t.Error("unexpected outcome names")
	}
	if StagePlaylistAppending.String() != "playlist_appending" || StageFingerprint.String() != "fingerprint" {
		t.Error("unexpected stage names")
	}
	if Stage(99).String() != "" || Outcome(99).String() != "" {
		t.Error("unknown values should render empty")
	}
}
