// Package buildctx handles the build context: the full set of files available to
// the image construction. Nothing is ever excluded from it.
package buildctx

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/slok/rtboot/internal/model"
)

// entry is a single build context file system entry.
type entry struct {
	rel  string // Slash separated, relative to the context root.
	path string
	info fs.FileInfo
	link string
}

// walk returns the context entries in lexical order, the root is not included.
func walk(ctx context.Context, dir string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		e := entry{rel: filepath.ToSlash(rel), path: p, info: info}
		switch {
		case info.Mode().IsRegular(), info.IsDir():
		case info.Mode()&fs.ModeSymlink != 0:
			e.link, err = os.Readlink(p)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported file type %s on %q: %w", info.Mode().Type(), e.rel, model.ErrNotValid)
		}

		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk build context %q: %w", dir, err)
	}

	return entries, nil
}

// Digest returns the content digest of a build context. Only paths, permissions,
// contents and link targets are used, timestamps and ownership are ignored.
func Digest(ctx context.Context, dir string) (string, error) {
	entries, err := walk(ctx, dir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%s\x00%o\x00", e.info.Mode().Type(), e.rel, e.info.Mode().Perm())

		switch {
		case e.link != "":
			fmt.Fprintf(h, "%s\x00", e.link)
		case e.info.Mode().IsRegular():
			fh, err := fileHash(e.path)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(h, "%s\x00", fh)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("could not hash %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Archive writes the build context as a tar stream into w. Entries are sorted and
// timestamps and ownership are normalized so the same context always produces the
// same stream. Extra files (e.g. a generated Dockerfile) are appended at the root,
// a context that already has any of them is rejected.
func Archive(ctx context.Context, dir string, extra map[string][]byte, w io.Writer) error {
	entries, err := walk(ctx, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if _, ok := extra[e.rel]; ok {
			return fmt.Errorf("build context already has reserved file %q: %w", e.rel, model.ErrNotValid)
		}
	}

	tw := tar.NewWriter(w)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    e.rel,
			Mode:    int64(e.info.Mode().Perm()),
			ModTime: time.Unix(0, 0),
			Format:  tar.FormatPAX,
		}

		switch {
		case e.info.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
		case e.link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = e.info.Size()
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("could not write header of %q: %w", e.rel, err)
		}

		if hdr.Typeflag == tar.TypeReg {
			if err := copyFileTo(tw, e.path); err != nil {
				return fmt.Errorf("could not archive %q: %w", e.rel, err)
			}
		}
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		data := extra[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(data)),
			ModTime:  time.Unix(0, 0),
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("could not write header of %q: %w", name, err)
		}
		if _, err := io.Copy(tw, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("could not archive %q: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("could not close archive: %w", err)
	}

	return nil
}

func copyFileTo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
