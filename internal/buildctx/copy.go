package buildctx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyTree copies the whole build context into dst, creating it if absent. File
// contents and permissions are kept and symlinks are recreated as they are.
// Existing files are overwritten so calling it N times gives the same result.
func CopyTree(ctx context.Context, src, dst string) error {
	entries, err := walk(ctx, src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("could not create destination %q: %w", dst, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := filepath.Join(dst, filepath.FromSlash(e.rel))
		switch {
		case e.info.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("could not create directory %q: %w", target, err)
			}
			if err := os.Chmod(target, e.info.Mode().Perm()); err != nil {
				return fmt.Errorf("could not set permissions on %q: %w", target, err)
			}

		case e.link != "":
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("could not replace %q: %w", target, err)
			}
			if err := os.Symlink(e.link, target); err != nil {
				return fmt.Errorf("could not create symlink %q: %w", target, err)
			}

		default:
			if err := copyFile(e.path, target, e.info.Mode().Perm()); err != nil {
				return fmt.Errorf("could not copy %q: %w", e.rel, err)
			}
		}
	}

	return nil
}

func copyFile(src, dst string, perm os.FileMode) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// OpenFile only applies the permissions on creation and is affected by umask.
	return os.Chmod(dst, perm)
}
