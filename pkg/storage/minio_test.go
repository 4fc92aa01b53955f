package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArtifactURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected ArtifactLocation
		wantErr  bool
	}{
		{name: "local path", uri: "./models/w2v.txt", expected: ArtifactLocation{Object: "./models/w2v.txt"}},
		{name: "minio object", uri: "minio://artifacts/models/w2v.txt.gz", expected: ArtifactLocation{Bucket: "artifacts", Object: "models/w2v.txt.gz"}},
		{name: "missing object", uri: "minio://artifacts", wantErr: true},
		{name: "missing bucket", uri: "minio:///w2v.txt", wantErr: true},
		{name: "empty", uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseArtifactURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, loc)
			require.Equal(t, tt.uri, loc.String())
		})
	}
}

func TestOpenArtifact_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"coef":[1]}`), 0o600))

	rc, err := OpenArtifact(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, `{"coef":[1]}`, string(b))
}

func TestOpenArtifact_MinIODisabled(t *testing.T) {
	MinioClient = nil
	_, err := OpenArtifact(context.Background(), "minio://bucket/object")
	require.ErrorIs(t, err, ErrMinIODisabled)
}
