package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File is a capture file observed in the working directory.
type File struct {
	Name    Name
	Path    string
	ModTime time.Time
	Size    int64
}

// Base returns the file name without its directory.
func (f File) Base() string {
	return filepath.Base(f.Path)
}

// Scan is the result of one catalog pass. Both slices are sorted by name.
type Scan struct {
	// Valid files have the monitored endpoint on one side.
	Valid []File
	// Foreign files are well-formed but belong to another server.
	Foreign []File
	// Skipped counts directory entries ignored because of their name or type.
	Skipped int
}

// Catalog enumerates capture files for one monitored endpoint.
// It only reads directory entries and file metadata.
type Catalog struct {
	dir    string
	listen Endpoint
}

// NewCatalog creates a catalog over dir for the listen endpoint.
func NewCatalog(dir string, listen Endpoint) *Catalog {
	return &Catalog{dir: dir, listen: listen}
}

// Dir returns the working directory being scanned.
func (c *Catalog) Dir() string {
	return c.dir
}

// Scan lists the working directory. Malformed names and subdirectories are
// skipped and never reported. Files that vanish between listing and stat
// are skipped as well; they will be seen (or not) on the next pass.
func (c *Catalog) Scan() (Scan, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Scan{}, fmt.Errorf("reading data directory: %w", err)
	}

	var out Scan
	for _, e := range entries {
		if e.IsDir() {
			out.Skipped++
			continue
		}
		name, err := ParseName(e.Name())
		if err != nil {
			out.Skipped++
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			out.Skipped++
			continue
		}

		f := File{
			Name:    name,
			Path:    filepath.Join(c.dir, e.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		if name.Involves(c.listen) {
			out.Valid = append(out.Valid, f)
		} else {
			out.Foreign = append(out.Foreign, f)
		}
	}
	return out, nil
}
