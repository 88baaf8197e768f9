// Package bundle unpacks forecast TAR bundles into member product files.
package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/lgr"
)

// member files can't be arbitrarily large, cap extraction to keep a
// malformed archive from filling the disk
const maxMemberSize = 256 << 20 // 256MB

// Extractor unpacks TAR bundles.
type Extractor struct {
	// Suffix limits extraction to members with this extension, e.g. ".hdf"
	Suffix string
}

// Extract unpacks the bundle at tarPath into destDir and returns the paths of
// the extracted members. Member paths are flattened to their base names so the
// archive's internal layout can't escape destDir. Only members matching the
// configured suffix are extracted.
func (e *Extractor) Extract(tarPath, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination dir: %w", err)
	}

	fh, err := os.Open(tarPath) //nolint:gosec // path comes from configured data dir
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", tarPath, err)
	}
	defer fh.Close()

	lgr.Printf("[INFO] extracting bundle %s", filepath.Base(tarPath))

	var extracted []string
	reader := tar.NewReader(fh)
	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return extracted, fmt.Errorf("read bundle %s: %w", tarPath, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(hdr.Name)
		if e.Suffix != "" && !strings.HasSuffix(strings.ToLower(name), e.Suffix) {
			continue
		}

		dest := filepath.Join(destDir, name)
		if err := writeMember(dest, reader); err != nil {
			return extracted, fmt.Errorf("extract %s: %w", name, err)
		}
		extracted = append(extracted, dest)
	}

	lgr.Printf("[DEBUG] extracted %d bundle members", len(extracted))
	return extracted, nil
}

func writeMember(dest string, r io.Reader) error {
	fh, err := os.Create(dest) //nolint:gosec // destination under configured data dir
	if err != nil {
		return err
	}
	if _, err := io.Copy(fh, io.LimitReader(r, maxMemberSize)); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
