package miniosmoke

import (
	"fmt"
	"io/fs"
	"path"
)

// Files reads every regular file of the fsys into a File slice, in lexical
// walk order. File names lose their directory prefix.
func Files(fsys fs.FS) ([]File, error) {
	files := make([]File, 0)

	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("read file %s, %w", filePath, err)
		}

		files = append(files, File{
			Name:    path.Base(filePath),
			Content: content,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk files, %w", err)
	}

	return files, nil
}

func MustFiles(fsys fs.FS) []File {
	files, err := Files(fsys)
	if err != nil {
		panic(err)
	}

	return files
}
