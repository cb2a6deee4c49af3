// package repositories provides the SQLite persistence layer for run reports.
package repositories

import (
	"encoding/json"
	"errors"

	"github.com/desertthunder/ibup/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// outcomes and stages map stored names back to their values.
var (
	outcomes = nameIndex(models.Uploaded, models.Skipped, models.Failed)
	stages   = nameIndex(
		models.StageDiscovered,
		models.StageFingerprint,
		models.StageSkipped,
		models.StageUploading,
		models.StageUploaded,
		models.StageTagging,
		models.StagePlaylistAppending,
		models.StageDone,
	)
)

func nameIndex[T interface{ String() string }](values ...T) map[string]T {
	index := make(map[string]T, len(values))
	for _, v := range values {
		index[v.String()] = v
	}
	return index
}

// encodeJSON stores lists and maps as JSON text. Empty values are stored as "".
func encodeJSON[T any](v T, empty bool) (string, error) {
	if empty {
		return "", nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

func decodeJSON[T any](s string) (T, error) {
	var v T
	if s == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
