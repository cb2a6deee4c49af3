package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ibup/internal/shared"
)

var (
	_ list.Item = fileItem{}
)

// fileItem wraps a candidate path to implement [list.Item].
type fileItem struct {
	path   string
	size   int64
	artist string
	title  string
	album  string
}

func (i fileItem) FilterValue() string { return i.path }
func (i fileItem) Title() string       { return i.path }
func (i fileItem) Description() string {
	var parts []string
	if i.artist != "" || i.title != "" {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s - %s", i.artist, i.title)))
	}
	if i.album != "" {
		parts = append(parts, i.album)
	}
	parts = append(parts, shared.HumanSize(i.size))
	return strings.Join(parts, " • ")
}

// loadItem stats path and, for mp3 files, reads the artist, title and album frames.
// Missing or unreadable tags leave the description at the file size.
func loadItem(path string) fileItem {
	item := fileItem{path: path}
	if info, err := os.Stat(path); err == nil {
		item.size = info.Size()
	}

	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return item
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Artist", "Title", "Album/Movie/Show title"}})
	if err != nil {
		return item
	}
	defer tag.Close()

	item.artist = tag.Artist()
	item.title = tag.Title()
	item.album = tag.Album()
	return item
}

func loadItems(paths []string) []fileItem {
	items := make([]fileItem, len(paths))
	for i, p := range paths {
		items[i] = loadItem(p)
	}
	return items
}
