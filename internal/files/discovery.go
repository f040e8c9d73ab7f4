package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// YearFile is a source file covering a single year
type YearFile struct {
	FileInfo
	Year int
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) fullPath(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// findBySuffix lists the regular files of dir whose lowercase name ends
// with one of suffixes, sorted by name
func (d *Discovery) findBySuffix(dir string, suffixes ...string) ([]FileInfo, error) {
	fullPath := d.fullPath(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		matched := false
		for _, suffix := range suffixes {
			if strings.HasSuffix(lower, suffix) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindExcelFiles finds all Excel files in the specified directory
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	return d.findBySuffix(dir, ".xlsx", ".xls")
}

// FindCSVFiles finds all CSV files in the specified directory
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findBySuffix(dir, ".csv")
}

// FindFilesByPattern finds files matching a glob pattern, sorted by name
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.fullPath(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	sort.Strings(matches)

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// FindYearFiles returns the files matching pattern whose name carries a
// year, sorted by year. Files without a year are ignored and, for a
// duplicated year, the first name in lexical order wins.
func (d *Discovery) FindYearFiles(dir string, pattern string) ([]YearFile, error) {
	files, err := d.FindFilesByPattern(dir, pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var years []YearFile
	for _, file := range files {
		year, ok := YearFromName(file.Name)
		if !ok || seen[year] {
			continue
		}
		seen[year] = true
		years = append(years, YearFile{FileInfo: file, Year: year})
	}

	sort.Slice(years, func(i, j int) bool {
		return years[i].Year < years[j].Year
	})
	return years, nil
}

// YearFromName extracts the last four-digit year of a file name,
// e.g. 2021 for "75_2021_clean.csv"
func YearFromName(name string) (int, bool) {
	matches := yearPattern.FindAllString(filepath.Base(name), -1)
	if len(matches) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// Stem returns the file name without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
