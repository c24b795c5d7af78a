package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteArchive repackages the given report files into a zip archive so the
// raw documents behind a filtered record set can be shared as one download.
// Files are stored under their base names; missing files are skipped.
func WriteArchive(paths []string, w io.Writer) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", path, err)
		}

		f, err := zw.Create(filepath.Base(path))
		if err != nil {
			return fmt.Errorf("creating zip entry for %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing zip entry for %s: %w", path, err)
		}
	}

	return nil
}
