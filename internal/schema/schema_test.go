package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autotrade/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoFile(parts ...string) string {
	return filepath.Join(append([]string{"..", ".."}, parts...)...)
}

func writeSample(t *testing.T, mutate func(string) string) string {
	t.Helper()
	data, err := os.ReadFile(repoFile(DefaultSamplePath))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(mutate(string(data))), 0o644))
	return path
}

func TestShippedSamplePasses(t *testing.T) {
	require.NoError(t, ValidateFiles(repoFile(DefaultSchemaPath), repoFile(DefaultSamplePath)))

	bar, err := DecodeBarRow(repoFile(DefaultSamplePath))
	require.NoError(t, err)
	assert.Equal(t, "TQQQ", bar.Symbol)
	assert.Equal(t, model.MinuteKey(bar.TsNY), bar.MinuteKey)
}

func TestSchemaRejectsViolations(t *testing.T) {
	cases := map[string]func(string) string{
		"naive timestamp": func(s string) string {
			return strings.Replace(s, "09:31:00-05:00", "09:31:00", 1)
		},
		"bad source": func(s string) string {
			return strings.Replace(s, `"IEX"`, `"OTC"`, 1)
		},
		"zero bar count": func(s string) string {
			return strings.Replace(s, `"bar_count": 35`, `"bar_count": 0`, 1)
		},
		"negative volume": func(s string) string {
			return strings.Replace(s, `"v": 182340`, `"v": -1`, 1)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateFiles(repoFile(DefaultSchemaPath), writeSample(t, mutate))
			assert.Error(t, err)
		})
	}
}

func TestMissingFilesFail(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, ValidateFiles(filepath.Join(dir, "nope.json"), repoFile(DefaultSamplePath)))
	assert.Error(t, ValidateFiles(repoFile(DefaultSchemaPath), filepath.Join(dir, "nope.json")))
}

func TestDecodeBarRowRejectsInconsistentKey(t *testing.T) {
	path := writeSample(t, func(s string) string {
		return strings.Replace(s, "20240102-0931", "20240102-0932", 1)
	})
	_, err := DecodeBarRow(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
}
