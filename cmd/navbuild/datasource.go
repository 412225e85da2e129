package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/luke-gav/namigator/internal/xerr"
)

// fsDataSource is the filesystem-backed wgm.DataSource for the offline
// build tool: world files live at "<DataDir>/<map>.wdt", ADTs at
// "<DataDir>/<map>/<map>_<x>_<y>.adt", and models at whatever path the
// world/ADT parser embedded, resolved relative to DataDir.
type fsDataSource struct {
	DataDir string
}

func (f fsDataSource) OpenWorldFile(mapName string) ([]byte, error) {
	return f.read(filepath.Join(f.DataDir, mapName+".wdt"))
}

func (f fsDataSource) OpenAdtFile(mapName string, x, y int) ([]byte, error) {
	return f.read(filepath.Join(f.DataDir, mapName, fmt.Sprintf("%s_%d_%d.adt", mapName, x, y)))
}

func (f fsDataSource) OpenModelFile(filename string) ([]byte, error) {
	return f.read(filepath.Join(f.DataDir, filename))
}

func (f fsDataSource) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerr.New(xerr.NotFound, path)
		}
		return nil, xerr.Wrap(xerr.IoError, "read "+path, err)
	}
	return data, nil
}

// fsArchive is the filesystem-backed tbo.Archive sink: one file per ADT
// under "<OutDir>/<MapName>/adt_<x>_<y>.bin", the layout rnm.FSArchiveSource
// reads back at runtime.
type fsArchive struct {
	OutDir  string
	MapName string
}

func (a fsArchive) WriteAdt(x, y int, data []byte) error {
	dir := filepath.Join(a.OutDir, a.MapName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerr.Wrap(xerr.IoError, "create output directory", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("adt_%d_%d.bin", x, y))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerr.Wrap(xerr.IoError, "write adt archive", err)
	}
	return nil
}
