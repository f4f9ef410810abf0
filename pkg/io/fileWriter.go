package io

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDirForFile creates all directories needed to hold filePath, returning
// an error wrapped with entity to identify what the directory was for.
func MakeDirForFile(filePath string, entity string) error {
	dir := filepath.Dir(filePath)
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("could not create dir for %s: %w", entity, err)
	}
	return nil
}
