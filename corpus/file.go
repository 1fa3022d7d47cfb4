package corpus

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// File reads the dataset from a local JSON or YAML file holding an ordered
// list of partitions:
//
//	[{"split": "train", "rows": [{"patient_convo": "...", "soap_notes": "..."}]}]
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return "file:" + f.path
}

func (f *File) Partitions(_ context.Context) ([]Partition, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus file", goerr.V("path", f.path))
	}

	var partitions []Partition
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &partitions)
	default:
		err = json.Unmarshal(data, &partitions)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse corpus file", goerr.V("path", f.path))
	}
	return partitions, nil
}
