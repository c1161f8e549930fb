package knowledgebase

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "report.pdf", "report.pdf", false},
		{"nested", "docs/2024/report.pdf", "report.pdf", false},
		{"traversal", "../../secret", "secret", false},
		{"decomposed accent", "cafe\u0301.txt", "caf\u00e9.txt", false},
		{"empty", "", "", true},
		{"dot", ".", "", true},
		{"parent", "..", "", true},
		{"root", "/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := localFileName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "a.txt"), got)

	got, err = expandPath("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = expandPath("relative.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	got, err = expandPath("~other/file")
	require.NoError(t, err)
	assert.Equal(t, "~other", filepath.Base(filepath.Dir(got)), "only ~/ is expanded")
}
