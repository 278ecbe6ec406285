// Package filesystem deletes database files left behind by dropped databases.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/enunezf/zartdeploy/internal/adapters/process"
	apperrors "github.com/enunezf/zartdeploy/internal/errors"
)

// Remover implements ports.FileRemover on an afero filesystem
type Remover struct {
	fs  afero.Fs
	out io.Writer
}

// NewRemover creates a remover that reports deletions to out. A nil out keeps it quiet.
func NewRemover(fs afero.Fs, out io.Writer) *Remover {
	return &Remover{fs: fs, out: out}
}

// NewOsRemover creates a remover on the real filesystem
func NewOsRemover(out io.Writer) *Remover {
	return NewRemover(afero.NewOsFs(), out)
}

// Remove deletes path if it exists. A missing file is not an error.
func (r *Remover) Remove(path string) (bool, error) {
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return false, apperrors.Wrap(apperrors.FileRemoval, path, err)
	}
	if !exists {
		return false, nil
	}

	if err := r.fs.Remove(path); err != nil {
		// lost a race with someone else deleting it
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.FileRemoval, path, err)
	}

	if r.out != nil {
		fmt.Fprintln(r.out, "del "+process.QuoteArg(path))
	}
	return true, nil
}
