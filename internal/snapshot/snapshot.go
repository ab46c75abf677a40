// Package snapshot serializes compile results to JSON files,
// xz-compressed when the path says so. Snapshots are golden-file
// material for debugging instruction sets across versions.
package snapshot

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/veildoc/veil/core/compile"
	"github.com/veildoc/veil/core/errors"
)

// Write stores a compile result at path. A ".xz" suffix selects xz
// compression of the JSON payload.
func Write(path string, res *compile.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	if strings.HasSuffix(path, ".xz") {
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return errors.Wrap(err, "xz writer")
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "compress snapshot")
		}
		if err := w.Close(); err != nil {
			return errors.Wrap(err, "finish snapshot compression")
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// Read loads a compile result from path, transparently decompressing
// ".xz" files.
func Read(path string) (*compile.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	if strings.HasSuffix(path, ".xz") {
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.NewParse("snapshot", path, err.Error())
		}
		if data, err = io.ReadAll(r); err != nil {
			return nil, errors.NewParse("snapshot", path, err.Error())
		}
	}

	var res compile.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.NewParse("snapshot JSON", path, err.Error())
	}
	return &res, nil
}
