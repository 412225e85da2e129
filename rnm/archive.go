package rnm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/luke-gav/namigator/internal/xerr"
)

// ArchiveSource reads the per-ADT archive TBO's Archive sink wrote for one
// (x, y), per spec §6's on-disk format. RNM is read-only: it never writes
// archives itself.
type ArchiveSource interface {
	ReadAdt(x, y int) ([]byte, error)
}

// FSArchiveSource reads archives from OutDir/MapName/adt_<x>_<y>.bin, the
// layout fsArchive (cmd/navbuild's Archive sink) writes to.
type FSArchiveSource struct {
	OutDir  string
	MapName string
}

func (f FSArchiveSource) ReadAdt(x, y int) ([]byte, error) {
	data, err := os.ReadFile(adtArchivePath(f.OutDir, f.MapName, x, y))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerr.WithCoord(xerr.NotFound, xerr.AdtCoord(x, y), "adt archive not found")
		}
		return nil, xerr.Wrap(xerr.IoError, "read adt archive", err)
	}
	return data, nil
}

func adtArchivePath(outDir, mapName string, x, y int) string {
	return filepath.Join(outDir, mapName, fmt.Sprintf("adt_%d_%d.bin", x, y))
}
