package exporter

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// sink receives one encoded snapshot per dashboard.
type sink interface {
	write(name string, snap *Snapshot) error
	// close finishes the output and returns the files it produced.
	close() ([]string, error)
}

// dirSink writes every snapshot to its own file in dir.
type dirSink struct {
	dir   string
	files []string
}

func (d *dirSink) write(name string, snap *Snapshot) error {
	path := filepath.Join(d.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeSnapshot(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.files = append(d.files, path)
	return nil
}

func (d *dirSink) close() ([]string, error) { return d.files, nil }

// zipSink streams snapshots straight into one archive, so no intermediate
// files are left behind on failure.
type zipSink struct {
	path string
	file *os.File
	zw   *zip.Writer
}

func newZipSink(path string) (*zipSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating zip file: %w", err)
	}
	return &zipSink{path: path, file: f, zw: zip.NewWriter(f)}, nil
}

func (z *zipSink) write(name string, snap *Snapshot) error {
	w, err := z.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: snap.ExportedAt,
	})
	if err != nil {
		return fmt.Errorf("adding %s to zip: %w", name, err)
	}
	return encodeSnapshot(w, snap)
}

func (z *zipSink) close() ([]string, error) {
	if err := z.zw.Close(); err != nil {
		z.file.Close()
		return nil, fmt.Errorf("finishing zip: %w", err)
	}
	if err := z.file.Close(); err != nil {
		return nil, err
	}
	return []string{z.path}, nil
}

// abort discards a partially written archive.
func (z *zipSink) abort() {
	z.zw.Close()
	z.file.Close()
	os.Remove(z.path)
}

func encodeSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func snapshotName(snap *Snapshot) string {
	return "dashboard-" + snap.Dashboard.ID + ".json"
}

func archiveName(scope string, now time.Time) string {
	return fmt.Sprintf("widget-studio-export-%s-%s.zip", scope, now.Format("2006-01-02"))
}
