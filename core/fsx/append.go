package fsx

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppendLine appends exactly one record line to a file. The caller provides
// raw bytes for one record without a terminator; this function appends a
// trailing newline and fsyncs the file before returning. The context format
// assumes append-only, single-writer-per-file discipline, so no cross-process
// lock is taken.
func AppendLine(path string, line []byte, mode os.FileMode) error {
	return AppendLines(path, [][]byte{line}, mode)
}

// AppendLines appends a group of record lines in one write call, so a section
// header and its first record land on disk together or not at all.
func AppendLines(path string, lines [][]byte, mode os.FileMode) error {
	if len(lines) == 0 {
		return nil
	}
	cleanPath, err := validateLocalOrAbsolutePath(path)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if bytes.ContainsAny(line, "\n\r") {
			return fmt.Errorf("append line must not contain a line terminator")
		}
	}
	parent := filepath.Dir(cleanPath)
	if parent != "." && parent != "" {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return fmt.Errorf("create append directory: %w", err)
		}
	}

	size := 0
	for _, line := range lines {
		size += len(line) + 1
	}
	payload := make([]byte, 0, size)
	for _, line := range lines {
		payload = append(payload, line...)
		payload = append(payload, '\n')
	}

	// #nosec G304 -- append path is validated local relative or absolute.
	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("open append file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	if _, err := file.Write(payload); err != nil {
		return fmt.Errorf("append file lines: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync append file: %w", err)
	}

	if parent != "." && parent != "" {
		syncDirectory(parent)
	}
	return nil
}

func syncDirectory(path string) {
	// #nosec G304 -- directory path is derived from a validated append path.
	handle, err := os.Open(path)
	if err != nil {
		return
	}
	_ = handle.Sync()
	_ = handle.Close()
}

func validateLocalOrAbsolutePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if filepath.IsLocal(cleanPath) {
		return cleanPath, nil
	}
	if strings.HasPrefix(cleanPath, string(filepath.Separator)) {
		return cleanPath, nil
	}
	if volume := filepath.VolumeName(cleanPath); volume != "" && strings.HasPrefix(cleanPath, volume+string(filepath.Separator)) {
		return cleanPath, nil
	}
	return "", fmt.Errorf("path must be local relative or absolute")
}
