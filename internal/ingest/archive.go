package ingest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// readZIP extracts a zipped shapefile bundle (.shp with its .shx and .dbf)
// into a scratch directory and reads the first .shp found.
func readZIP(path string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "parcel-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create extract dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if err := extractZIP(path, dir); err != nil {
		return nil, eris.Wrapf(err, "ingest: extract %s", path)
	}

	shpPath, err := findFileByExt(dir, ExtShapefile)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s", path)
	}
	return readShapefile(shpPath)
}

// extractZIP flattens the archive into destDir. Directory entries are skipped
// and entry names are reduced to their base name.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found", ext)
}
