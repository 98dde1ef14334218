package pipeline

import (
	"github.com/matzehuels/sawtooth/pkg/errors"
	pkgio "github.com/matzehuels/sawtooth/pkg/io"
)

// WriteArtifacts publishes every artifact in dir as one unit: all files are
// written to a staging area first and moved into place only when every write
// succeeded. On failure dir is left as it was. With clean, the regular files
// in dir that are not part of this output are removed after publishing;
// subdirectories are left alone. It returns the written paths in artifact
// order.
func WriteArtifacts(dir string, arts []Artifact, clean bool) ([]string, error) {
	keep := make(map[string]bool, len(arts))
	for _, a := range arts {
		if err := errors.ValidateFileStem(a.Name); err != nil {
			return nil, err
		}
		keep[a.Name] = true
	}

	batch, err := pkgio.NewBatch(dir)
	if err != nil {
		return nil, err
	}
	defer batch.Discard()

	for _, a := range arts {
		if err := batch.Add(a.Name, a.Data); err != nil {
			return nil, err
		}
	}
	paths, err := batch.Commit()
	if err != nil {
		return nil, err
	}

	if clean {
		if _, err := pkgio.PruneDir(dir, func(name string) bool { return keep[name] }); err != nil {
			return paths, err
		}
	}
	return paths, nil
}
