// Package version parses release folder names and orders them newest first
package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// FolderPrefix marks a release folder name ("V2.0.1").
const FolderPrefix = "V"

// String constants for operations (used in ErrParseFailed)
const (
	OpMatchFolder = "match_folder"
	OpParseMajor  = "parse_major"
	OpParseMinor  = "parse_minor"
	OpParsePatch  = "parse_patch"
)

var folderPattern = regexp.MustCompile(`^V(\d+)\.(\d+)\.(\d+)$`)

// ErrNotVersionFolder is returned for names that do not look like V<major>.<minor>.<patch>.
var ErrNotVersionFolder = errors.New("not a version folder name")

// ErrParseFailed represents a folder name that could not be parsed
type ErrParseFailed struct {
	Folder string
	Op     string
	Cause  error
}

func (e ErrParseFailed) Error() string {
	return fmt.Sprintf("failed to parse version folder %s in operation %s: %v", e.Folder, e.Op, e.Cause)
}

func (e ErrParseFailed) Unwrap() error {
	return e.Cause
}

func (e ErrParseFailed) Is(target error) bool {
	var parseErr ErrParseFailed
	return errors.As(target, &parseErr)
}

// Version is a parsed release folder.
type Version struct {
	Folder string // folder name as found on disk, e.g. "V2.0.1"
	sem    *semver.Version
}

// ParseFolder parses a folder name of the form V<major>.<minor>.<patch>.
func ParseFolder(name string) (Version, error) {
	m := folderPattern.FindStringSubmatch(name)
	if m == nil {
		return Version{}, ErrParseFailed{Folder: name, Op: OpMatchFolder, Cause: ErrNotVersionFolder}
	}

	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Version{}, ErrParseFailed{Folder: name, Op: OpParseMajor, Cause: err}
	}
	minor, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Version{}, ErrParseFailed{Folder: name, Op: OpParseMinor, Cause: err}
	}
	patch, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return Version{}, ErrParseFailed{Folder: name, Op: OpParsePatch, Cause: err}
	}

	return Version{
		Folder: name,
		sem:    semver.New(major, minor, patch, "", ""),
	}, nil
}

// IsFolderName reports whether name is a parsable version folder name.
func IsFolderName(name string) bool {
	_, err := ParseFolder(name)
	return err == nil
}

// String returns the semantic version: the folder name without its "V" marker.
func (v Version) String() string {
	return strings.TrimPrefix(v.Folder, FolderPrefix)
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.sem.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.sem.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.sem.Patch() }

// Compare compares numerically by major, then minor, then patch
// (-1 if v < o, 0 if equal, 1 if v > o).
func (v Version) Compare(o Version) int {
	return v.sem.Compare(o.sem)
}

// SortDescending sorts versions newest first. Equal versions keep their
// relative input order.
func SortDescending(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
}

// Folders returns the folder names of versions, in order.
func Folders(versions []Version) []string {
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		names = append(names, v.Folder)
	}
	return names
}
