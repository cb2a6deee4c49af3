package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/ibup/internal/shared"
	tu "github.com/desertthunder/ibup/internal/testing"
)

func newTestClient(f *tu.FakeLocker) *Client {
	config := shared.DefaultConfig()
	config.Service.APIURL = f.APIURL()
	config.Service.LibraryURL = f.LibraryURL()
	config.Service.UploadURL = f.UploadURL()
	return NewClient(config, f.Server.Client(), nil)
}

func mustLogin(t *testing.T, c *Client) Session {
	t.Helper()
	sess, err := c.Login(context.Background(), "login-token")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	return sess
}

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Defaults", func(t *testing.T) {
			c := NewClient(nil, nil, nil)

			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if c.apiURL != "https://api.ibroadcast.com/" {
				t.Errorf("unexpected api url %s", c.apiURL)
			}
			if got := c.Identity(); got.AppID != 1014 || got.UserAgent != "iUploader 0.1" || got.Client != "iUploader" {
				t.Errorf("unexpected identity %+v", got)
			}
		})

		t.Run("With Custom Client", func(t *testing.T) {
			custom := &http.Client{}
			c := NewClient(shared.DefaultConfig(), custom, nil)
			if c.httpClient != custom {
				t.Error("expected custom client to be used")
			}
		})
	})

	t.Run("Request Payload", func(t *testing.T) {
		var body map[string]any
		var agent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent = r.Header.Get("User-Agent")
			json.NewDecoder(r.Body).Decode(&body)
			w.Write([]byte(`{"result": true}`))
		}))
		defer server.Close()

		config := shared.DefaultConfig()
		config.Service.APIURL = server.URL
		c := NewClient(config, nil, nil)

		_, err := c.apiRequest(context.Background(), Session{UserID: "7", Token: "tok"}, "createtag", map[string]any{"tagname": "Rock"}, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if agent != "iUploader 0.1" {
			t.Errorf("expected User-Agent header, got %q", agent)
		}
		for _, key := range []string{"mode", "tagname", "app_id", "version", "client", "device_name", "user_agent", "user_id", "token"} {
			if _, ok := body[key]; !ok {
				t.Errorf("expected %q in payload, got %v", key, body)
			}
		}
		if body["mode"] != "createtag" || body["token"] != "tok" {
			t.Errorf("unexpected payload %v", body)
		}
	})

	t.Run("Result Checking", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
			check  bool
			want   error
		}{
			{name: "missing result", status: 200, body: `{"message": "hi"}`, check: true, want: shared.ErrMissingResult},
			{name: "false result", status: 200, body: `{"result": false}`, check: true, want: shared.ErrRequestRejected},
			{name: "bad status", status: 500, body: `oops`, check: true, want: shared.ErrUnexpectedStatus},
			{name: "bad status unchecked", status: 502, body: ``, check: false, want: shared.ErrUnexpectedStatus},
			{name: "not json", status: 200, body: `<html>`, check: true, want: shared.ErrMalformedBody},
			{name: "false result unchecked", status: 200, body: `{"result": false}`, check: false},
			{name: "missing result unchecked", status: 200, body: `{}`, check: false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				config := shared.DefaultConfig()
				config.Service.APIURL = server.URL
				c := NewClient(config, nil, nil)

				resp, err := c.apiRequest(context.Background(), Session{}, "status", nil, tt.check)
				if tt.want == nil {
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					if resp.OK() {
						t.Error("expected response not to be OK")
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if resp == nil || resp.StatusCode != tt.status {
					t.Errorf("expected response with status %d to be returned, got %+v", tt.status, resp)
				}
			})
		}
	})

	t.Run("Transport Failures", func(t *testing.T) {
		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			c := NewClient(nil, client, nil)

			_, err := c.apiRequest(context.Background(), Session{}, "status", nil, true)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: 200,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil)}
			c := NewClient(nil, client, nil)

			_, err := c.apiRequest(context.Background(), Session{}, "status", nil, true)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})
	})
}

func TestAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			f := tu.NewFakeLocker(t)
			c := newTestClient(f)

			sess := mustLogin(t, c)
			if sess.UserID.String() != "4242" || sess.Token != "session-token" {
				t.Errorf("unexpected session %+v", sess)
			}

			calls := f.Calls("login_token")
			if len(calls) != 1 || calls[0].Args["type"] != "account" || calls[0].Args["login_token"] != "login-token" {
				t.Errorf("unexpected login call %+v", calls)
			}
			if _, ok := calls[0].Args["user_id"]; ok {
				t.Error("login must not send credentials")
			}
		})

		t.Run("Bad Token", func(t *testing.T) {
			f := tu.NewFakeLocker(t)
			c := newTestClient(f)

			_, err := c.Login(ctx, "wrong")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Missing User Object", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"result": true, "message": "token expired"}`))
			}))
			defer server.Close()

			config := shared.DefaultConfig()
			config.Service.APIURL = server.URL
			c := NewClient(config, nil, nil)

			_, err := c.Login(ctx, "login-token")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), "token expired") {
				t.Errorf("expected server message in error, got %v", err)
			}
		})

		t.Run("Empty Token", func(t *testing.T) {
			c := NewClient(nil, nil, nil)
			_, err := c.Login(ctx, "")
			if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrAuthFailed and ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("SupportedFiletypes", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			f := tu.NewFakeLocker(t)
			f.Extensions = []string{".mp3", ".flac", ".ogg"}
			c := newTestClient(f)
			sess := mustLogin(t, c)

			exts, err := c.SupportedFiletypes(ctx, sess)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := exts.Sorted(); strings.Join(got, ",") != ".flac,.mp3,.ogg" {
				t.Errorf("unexpected extensions %v", got)
			}

			calls := f.Calls("status")
			if len(calls) != 1 || calls[0].Args["supported_types"] != json.Number("1") {
				t.Errorf("unexpected status call %+v", calls)
			}
		})

		t.Run("Not Authenticated", func(t *testing.T) {
			c := NewClient(nil, nil, nil)
			_, err := c.SupportedFiletypes(ctx, Session{})
			if !errors.Is(err, shared.ErrAccountInfo) || !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrAccountInfo, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			f := tu.NewFakeLocker(t)
			c := newTestClient(f)
			sess := mustLogin(t, c)
			f.Status["status"] = http.StatusInternalServerError

			_, err := c.SupportedFiletypes(ctx, sess)
			if !errors.Is(err, shared.ErrAccountInfo) || !errors.Is(err, shared.ErrUnexpectedStatus) {
				t.Errorf("expected ErrAccountInfo wrapping ErrUnexpectedStatus, got %v", err)
			}
		})
	})
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("Parses Tags And Playlists", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		rock := f.AddTag("Rock")
		jazz := f.AddTag("Jazz")
		mix := f.AddPlaylist("Mix")
		c := newTestClient(f)
		sess := mustLogin(t, c)

		lib, err := c.Library(ctx, sess)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.Tags) != 2 || lib.Tags[0].ID != StringID(rock) || lib.Tags[0].Name != "Rock" || lib.Tags[1].ID != StringID(jazz) {
			t.Errorf("unexpected tags %+v", lib.Tags)
		}
		if len(lib.Playlists) != 1 || lib.Playlists[0].ID != StringID(mix) || lib.Playlists[0].Name != "Mix" {
			t.Errorf("unexpected playlists %+v", lib.Playlists)
		}
		if _, ok := lib.Playlists[0].Fields["tracks"]; !ok {
			t.Error("expected positional fields to be rebuilt")
		}
	})

	t.Run("Field Map Ordering", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": true, "library": {
				"tags": {"5": {"name": "Live"}, "6": {"archived": true}},
				"playlists": {"map": {"tracks": 0, "name": 1}, "12": [[1, 2], "Road Trip"], "3": [[], "Chill"]}
			}}`))
		}))
		defer server.Close()

		config := shared.DefaultConfig()
		config.Service.LibraryURL = server.URL
		c := NewClient(config, nil, nil)

		lib, err := c.Library(ctx, Session{UserID: "1", Token: "t"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Tags) != 1 || lib.Tags[0].Name != "Live" {
			t.Errorf("expected unnamed tags to be skipped, got %+v", lib.Tags)
		}
		if len(lib.Playlists) != 2 || lib.Playlists[0].Name != "Chill" || lib.Playlists[1].Name != "Road Trip" {
			t.Errorf("expected playlists sorted by numeric id, got %+v", lib.Playlists)
		}
	})

	t.Run("Missing Field Map", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": true, "library": {"tags": {}, "playlists": {"1": ["x"]}}}`))
		}))
		defer server.Close()

		config := shared.DefaultConfig()
		config.Service.LibraryURL = server.URL
		c := NewClient(config, nil, nil)

		_, err := c.Library(ctx, Session{UserID: "1", Token: "t"})
		if !errors.Is(err, shared.ErrLibraryFetch) || !errors.Is(err, shared.ErrMalformedBody) {
			t.Errorf("expected ErrMalformedBody, got %v", err)
		}
	})

	t.Run("Create And Apply", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		c := newTestClient(f)
		sess := mustLogin(t, c)

		tagID, err := c.CreateTag(ctx, sess, "New")
		if err != nil || tagID.IsZero() {
			t.Fatalf("expected tag id, got %q, %v", tagID, err)
		}
		plID, err := c.CreatePlaylist(ctx, sess, "Fresh")
		if err != nil || plID.IsZero() {
			t.Fatalf("expected playlist id, got %q, %v", plID, err)
		}

		resp, err := c.TagTracks(ctx, sess, tagID, 77)
		if err != nil || !resp.OK() {
			t.Fatalf("expected tagtracks to succeed, got %v, %v", resp, err)
		}
		resp, err = c.AppendPlaylist(ctx, sess, plID, 77)
		if err != nil || !resp.OK() {
			t.Fatalf("expected appendplaylist to succeed, got %v, %v", resp, err)
		}

		if got := f.Tagged(tagID.String()); len(got) != 1 || got[0] != 77 {
			t.Errorf("unexpected tagged tracks %v", got)
		}
		if got := f.Appended(plID.String()); len(got) != 1 || got[0] != 77 {
			t.Errorf("unexpected appended tracks %v", got)
		}
	})

	t.Run("Ids Are Sent In The Form They Arrived", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		f.AddTag("Rock")
		c := newTestClient(f)
		sess := mustLogin(t, c)

		lib, err := c.Library(ctx, sess)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		created, err := c.CreatePlaylist(ctx, sess, "Fresh")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := c.TagTracks(ctx, sess, lib.Tags[0].ID, 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := c.AppendPlaylist(ctx, sess, created, 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tagCalls := f.Calls("tagtracks")
		if len(tagCalls) != 1 {
			t.Fatalf("expected one tagtracks call, got %d", len(tagCalls))
		}
		if _, ok := tagCalls[0].Args["tagid"].(string); !ok {
			t.Errorf("expected a library tag id as a string, got %T", tagCalls[0].Args["tagid"])
		}

		plCalls := f.Calls("appendplaylist")
		if len(plCalls) != 1 {
			t.Fatalf("expected one appendplaylist call, got %d", len(plCalls))
		}
		if _, ok := plCalls[0].Args["playlist"].(json.Number); !ok {
			t.Errorf("expected a created playlist id as a number, got %T", plCalls[0].Args["playlist"])
		}
	})

	t.Run("Rejected Tagging Is Left To The Caller", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		id := f.AddTag("Rock")
		f.RejectTags[id] = true
		c := newTestClient(f)
		sess := mustLogin(t, c)

		resp, err := c.TagTracks(ctx, sess, StringID(id), 1)
		if err != nil {
			t.Fatalf("expected no transport error, got %v", err)
		}
		if resp.OK() {
			t.Error("expected result false")
		}
		if !strings.Contains(resp.String(), "Tagging failed") {
			t.Errorf("expected raw body to be kept, got %s", resp)
		}
	})
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("ParseTrackID", func(t *testing.T) {
		tests := []struct {
			name    string
			message string
			want    int64
			wantErr bool
		}{
			{name: "success message", message: "File song.mp3 (12345) uploaded successfully and is being processed.", want: 12345},
			{name: "name with spaces and parens", message: "File My Song (live).mp3 (9) uploaded successfully and is being processed.", want: 9},
			{name: "changed wording", message: "Upload complete: track 12345", wantErr: true},
			{name: "empty", message: "", wantErr: true},
			{name: "not anchored at start", message: "Note: File a.mp3 (1) uploaded successfully and is being processed.", wantErr: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseTrackID(tt.message)
				if tt.wantErr {
					if !errors.Is(err, shared.ErrMessageFormat) {
						t.Errorf("expected ErrMessageFormat, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %d, got %d", tt.want, got)
				}
			})
		}
	})

	t.Run("RemoteFingerprints", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		f.MD5s = []string{tu.MD5("one"), tu.MD5("two")}
		c := newTestClient(f)
		sess := mustLogin(t, c)

		set, err := c.RemoteFingerprints(ctx, sess)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(set) != 2 || !set.Contains(tu.MD5("one")) {
			t.Errorf("unexpected fingerprints %v", set)
		}
	})

	t.Run("RemoteFingerprints Failure", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		c := newTestClient(f)
		sess := mustLogin(t, c)
		f.Status["md5"] = http.StatusBadGateway

		_, err := c.RemoteFingerprints(ctx, sess)
		if !errors.Is(err, shared.ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("UploadFile", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		c := newTestClient(f)
		sess := mustLogin(t, c)

		resp, err := c.UploadFile(ctx, sess, "/music/a.mp3", strings.NewReader("audio bytes"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.OK() {
			t.Fatalf("expected upload to succeed, got %s", resp)
		}

		id, err := ParseTrackID(resp.Message)
		if err != nil {
			t.Fatalf("expected parsable message, got %v", err)
		}

		uploads := f.Uploads()
		if len(uploads) != 1 {
			t.Fatalf("expected 1 upload, got %d", len(uploads))
		}
		up := uploads[0]
		if up.Path != "/music/a.mp3" || up.Method != "iUploader" || up.Filename != "a.mp3" {
			t.Errorf("unexpected form fields %+v", up)
		}
		if string(up.Content) != "audio bytes" || up.TrackID != id {
			t.Errorf("unexpected content or id: %q, %d", up.Content, up.TrackID)
		}
	})

	t.Run("UploadFile Without Known Length", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		c := newTestClient(f)
		sess := mustLogin(t, c)

		content := io.MultiReader(bytes.NewBufferString("part one "), strings.NewReader("part two"))
		resp, err := c.UploadFile(ctx, sess, "/music/b.flac", content)
		if err != nil || !resp.OK() {
			t.Fatalf("expected upload to succeed, got %v, %v", resp, err)
		}
		if got := string(f.Uploads()[0].Content); got != "part one part two" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("UploadFile Rejected", func(t *testing.T) {
		f := tu.NewFakeLocker(t)
		f.RejectUploads["bad.mp3"] = true
		c := newTestClient(f)
		sess := mustLogin(t, c)

		resp, err := c.UploadFile(ctx, sess, "/music/bad.mp3", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("expected rejection in the response, got %v", err)
		}
		if resp.OK() {
			t.Error("expected result false")
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		c := NewClient(nil, nil, nil)
		if _, err := c.UploadFile(ctx, Session{}, "/a.mp3", strings.NewReader("")); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := c.RemoteFingerprints(ctx, Session{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestID(t *testing.T) {
	t.Run("Marshal Keeps The Received Form", func(t *testing.T) {
		data, _ := json.Marshal(map[string]ID{"a": NumberID("12"), "b": StringID("12"), "c": StringID("x1")})
		if string(data) != `{"a":12,"b":"12","c":"x1"}` {
			t.Errorf("unexpected encoding %s", data)
		}
	})

	t.Run("Unmarshal", func(t *testing.T) {
		var v struct{ A, B ID }
		if err := json.Unmarshal([]byte(`{"A": 12, "B": "34"}`), &v); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v.A != NumberID("12") || v.B != StringID("34") {
			t.Errorf("unexpected ids %+v", v)
		}
		if v.A.String() != "12" || v.B.String() != "34" {
			t.Errorf("unexpected values %s, %s", v.A, v.B)
		}
		if err := json.Unmarshal([]byte(`{"A": true}`), &v); err == nil {
			t.Error("expected error for boolean id")
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		for _, in := range []string{`7`, `"7"`} {
			var id ID
			if err := json.Unmarshal([]byte(in), &id); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			out, _ := json.Marshal(id)
			if string(out) != in {
				t.Errorf("%s came back as %s", in, out)
			}
		}
	})
}
