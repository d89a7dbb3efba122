package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://reports/uploads/abc/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "reports", bucket)
	assert.Equal(t, "uploads/abc/notes.txt", key)

	for _, bad := range []string{"https://reports/a.txt", "s3://reports", "s3:///a.txt", "::"} {
		_, _, err := ParseURL(bad)
		assert.ErrorIs(t, err, ErrForeignURL, bad)
	}
}

func TestS3Store_Key(t *testing.T) {
	s := &S3Store{bucket: "reports", prefix: "uploads"}

	key := s.Key(`C:\Users\me\weekly plan.xlsx`)
	assert.True(t, strings.HasPrefix(key, "uploads/"))
	assert.True(t, strings.HasSuffix(key, "/weekly plan.xlsx"))

	assert.True(t, strings.HasSuffix(s.Key("/"), "/file"))
	assert.NotEqual(t, s.Key("a.txt"), s.Key("a.txt"))
}
