package importer

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/domain"
)

func TestLoadImportSchema_MissingFile(t *testing.T) {
	_, err := LoadImportSchema(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "opening import file")
}

func TestDecodeImportSchema_RejectsUnknownTopLevelKey(t *testing.T) {
	_, err := DecodeImportSchema(strings.NewReader(`{"users": [], "teams": []}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
