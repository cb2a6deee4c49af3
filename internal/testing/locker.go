package testing

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
)

// APICall is one request received by [FakeLocker] on its api surface.
type APICall struct {
	Mode string
	Args map[string]any
}

// Upload is one file received by [FakeLocker].
type Upload struct {
	Path     string
	Method   string
	Filename string
	UserID   string
	Token    string
	Content  []byte
	TrackID  int64
}

// FakeLocker is an httptest server that speaks the locker protocol on three
// path prefixes: /api/, /library/ and /upload/.
//
// Fields may be changed between requests; access from handlers is serialized.
type FakeLocker struct {
	Server *httptest.Server

	LoginToken string
	UserID     int64
	Token      string
	Extensions []string
	MD5s       []string

	// Status overrides the HTTP status for a mode, or for "library", "md5" and "upload".
	Status map[string]int
	// RejectUploads lists basenames whose upload replies "result": false.
	RejectUploads map[string]bool
	// Message overrides the upload success message.
	Message func(filename string, trackID int64) string
	// RejectTags and RejectPlaylists list ids whose tagtracks/appendplaylist reply "result": false.
	RejectTags      map[string]bool
	RejectPlaylists map[string]bool
	// OmitResult lists modes whose replies leave out the "result" key.
	OmitResult map[string]bool

	mu        sync.Mutex
	nextID    int64
	tags      map[string]string
	playlists map[string]string
	calls     []APICall
	uploads   []Upload
	tagged    map[string][]int64
	appended  map[string][]int64
}

// NewFakeLocker starts a fake locker that accepts login token "login-token"
// and supports .mp3 and .flac. It is closed when the test ends.
func NewFakeLocker(t *testing.T) *FakeLocker {
	t.Helper()

	f := &FakeLocker{
		LoginToken:      "login-token",
		UserID:          4242,
		Token:           "session-token",
		Extensions:      []string{".mp3", ".flac"},
		Status:          map[string]int{},
		RejectUploads:   map[string]bool{},
		RejectTags:      map[string]bool{},
		RejectPlaylists: map[string]bool{},
		OmitResult:      map[string]bool{},
		nextID:          1000,
		tags:            map[string]string{},
		playlists:       map[string]string{},
		tagged:          map[string][]int64{},
		appended:        map[string][]int64{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", f.handleAPI)
	mux.HandleFunc("/library/", f.handleLibrary)
	mux.HandleFunc("/upload/", f.handleUpload)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

func (f *FakeLocker) APIURL() string     { return f.Server.URL + "/api/" }
func (f *FakeLocker) LibraryURL() string { return f.Server.URL + "/library/" }
func (f *FakeLocker) UploadURL() string  { return f.Server.URL + "/upload/" }

// AddTag seeds an existing tag and returns its id.
func (f *FakeLocker) AddTag(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(f.tags, name)
}

// AddPlaylist seeds an existing playlist and returns its id.
func (f *FakeLocker) AddPlaylist(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(f.playlists, name)
}

// Calls returns the api calls received so far, optionally filtered by mode.
func (f *FakeLocker) Calls(modes ...string) []APICall {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []APICall{}
	for _, c := range f.calls {
		if len(modes) == 0 || contains(modes, c.Mode) {
			out = append(out, c)
		}
	}
	return out
}

// Uploads returns the received files sorted by path.
func (f *FakeLocker) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := append([]Upload(nil), f.uploads...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Tagged returns the track ids tagged with tagID, sorted.
func (f *FakeLocker) Tagged(tagID string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedInts(f.tagged[tagID])
}

// Appended returns the track ids appended to playlistID, sorted.
func (f *FakeLocker) Appended(playlistID string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedInts(f.appended[playlistID])
}

// MD5 returns the hex md5 of content, as the server computes it.
func MD5(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (f *FakeLocker) handleAPI(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	mode, _ := args["mode"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, APICall{Mode: mode, Args: args})

	if status, ok := f.Status[mode]; ok {
		w.WriteHeader(status)
		return
	}

	if mode == "login_token" {
		if args["login_token"] != f.LoginToken {
			f.reply(w, mode, false, map[string]any{"message": "Invalid login token"})
			return
		}
		f.reply(w, mode, true, map[string]any{"user": f.userLocked()})
		return
	}

	if !f.authorized(fmt.Sprint(args["user_id"]), fmt.Sprint(args["token"])) {
		f.reply(w, mode, false, map[string]any{"message": "Authentication failed"})
		return
	}

	switch mode {
	case "status":
		supported := make([]map[string]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			supported = append(supported, map[string]string{"extension": ext})
		}
		f.reply(w, mode, true, map[string]any{"user": f.userLocked(), "supported": supported})
	case "createtag":
		id := f.addLocked(f.tags, fmt.Sprint(args["tagname"]))
		f.reply(w, mode, true, map[string]any{"id": json.Number(id)})
	case "createplaylist":
		id := f.addLocked(f.playlists, fmt.Sprint(args["name"]))
		f.reply(w, mode, true, map[string]any{"playlist_id": json.Number(id)})
	case "tagtracks":
		id := fmt.Sprint(args["tagid"])
		if f.RejectTags[id] {
			f.reply(w, mode, false, map[string]any{"message": "Tagging failed"})
			return
		}
		f.tagged[id] = append(f.tagged[id], trackIDs(args["tracks"])...)
		f.reply(w, mode, true, nil)
	case "appendplaylist":
		id := fmt.Sprint(args["playlist"])
		if f.RejectPlaylists[id] {
			f.reply(w, mode, false, map[string]any{"message": "Append failed"})
			return
		}
		f.appended[id] = append(f.appended[id], trackIDs(args["tracks"])...)
		f.reply(w, mode, true, nil)
	default:
		f.reply(w, mode, false, map[string]any{"message": "unknown mode " + mode})
	}
}

func (f *FakeLocker) handleLibrary(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, ok := f.Status["library"]; ok {
		w.WriteHeader(status)
		return
	}
	if !f.authorized(fmt.Sprint(args["user_id"]), fmt.Sprint(args["token"])) {
		f.reply(w, "library", false, map[string]any{"message": "Authentication failed"})
		return
	}

	tags := map[string]any{}
	for id, name := range f.tags {
		tags[id] = map[string]any{"name": name, "tracks": f.tagged[id]}
	}

	playlists := map[string]any{"map": map[string]int{"name": 0, "tracks": 1, "description": 2}}
	for id, name := range f.playlists {
		playlists[id] = []any{name, sortedInts(f.appended[id]), ""}
	}

	f.reply(w, "library", true, map[string]any{"library": map[string]any{"tags": tags, "playlists": playlists}})
}

func (f *FakeLocker) handleUpload(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f.receiveFile(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, ok := f.Status["md5"]; ok {
		w.WriteHeader(status)
		return
	}
	if !f.authorized(r.PostForm.Get("user_id"), r.PostForm.Get("token")) {
		f.reply(w, "md5", false, map[string]any{"message": "Authentication failed"})
		return
	}

	f.reply(w, "md5", true, map[string]any{"md5": append([]string{}, f.MD5s...)})
}

func (f *FakeLocker) receiveFile(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "bad multipart", http.StatusBadRequest)
		return
	}

	var up Upload
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "bad part", http.StatusBadRequest)
			return
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, part); err != nil {
			http.Error(w, "bad part body", http.StatusBadRequest)
			return
		}

		switch part.FormName() {
		case "file_path":
			up.Path = buf.String()
		case "method":
			up.Method = buf.String()
		case "user_id":
			up.UserID = buf.String()
		case "token":
			up.Token = buf.String()
		case "file":
			up.Filename = part.FileName()
			up.Content = buf.Bytes()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, ok := f.Status["upload"]; ok {
		w.WriteHeader(status)
		return
	}
	if !f.authorized(up.UserID, up.Token) {
		f.reply(w, "upload", false, map[string]any{"message": "Authentication failed"})
		return
	}

	base := filepath.Base(up.Path)
	if f.RejectUploads[base] {
		f.reply(w, "upload", false, map[string]any{"message": "Upload of " + base + " failed"})
		return
	}

	f.nextID++
	up.TrackID = f.nextID
	f.uploads = append(f.uploads, up)

	message := fmt.Sprintf("File %s (%d) uploaded successfully and is being processed.", up.Filename, up.TrackID)
	if f.Message != nil {
		message = f.Message(up.Filename, up.TrackID)
	}
	f.reply(w, "upload", true, map[string]any{"message": message})
}

func (f *FakeLocker) reply(w http.ResponseWriter, mode string, result bool, body map[string]any) {
	out := map[string]any{}
	for k, v := range body {
		out[k] = v
	}
	if !f.OmitResult[mode] {
		out["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (f *FakeLocker) authorized(userID, token string) bool {
	return userID == fmt.Sprint(f.UserID) && token == f.Token
}

func (f *FakeLocker) userLocked() map[string]any {
	return map[string]any{"id": f.UserID, "token": f.Token}
}

func (f *FakeLocker) addLocked(m map[string]string, name string) string {
	f.nextID++
	id := fmt.Sprint(f.nextID)
	m[id] = name
	return id
}

func trackIDs(v any) []int64 {
	list, _ := v.([]any)
	out := make([]int64, 0, len(list))
	for _, item := range list {
		if n, ok := item.(json.Number); ok {
			if id, err := n.Int64(); err == nil {
				out = append(out, id)
			}
		}
	}
	return out
}

func sortedInts(in []int64) []int64 {
	out := append([]int64{}, in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
