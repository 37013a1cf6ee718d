package miniosmoke_test

import (
	"embed"
	"slices"
	"testing"

	miniosmoke "github.com/amidman/dbsmoke/minio"
)

//go:embed testdata/files/*
var embedFiles embed.FS

func Test_MustFiles(t *testing.T) {
	files := miniosmoke.MustFiles(embedFiles)

	if len(files) != 2 {
		t.Fatalf("invalid files count, %d, %+v", len(files), files)
	}

	first := files[0]

	if first.Name != "first.txt" {
		t.Fatalf("invalid file name, expected 'first.txt', actual %s", first.Name)
	}

	if !slices.Equal(first.Content, []byte("first\n")) {
		t.Fatalf("invalid file content, expected %q, actual %q", "first\n", first.Content)
	}

	second := files[1]

	if second.Name != "second.txt" {
		t.Fatalf("invalid file name, expected 'second.txt', actual %s", second.Name)
	}

	if !slices.Equal(second.Content, []byte("second\n")) {
		t.Fatalf("invalid file content, expected %q, actual %q", "second\n", second.Content)
	}
}
