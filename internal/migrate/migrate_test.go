package migrate

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "sql/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", n)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrateLoggerWritesThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.InfoLevel)

	l := migrateLogger{logrus.NewEntry(logger)}
	l.Printf("applied %d\n", 1)
	assert.Contains(t, buf.String(), "applied 1")
	assert.False(t, l.Verbose())

	logger.SetLevel(logrus.DebugLevel)
	assert.True(t, l.Verbose())
}
