package version

import (
	"testing"

	"github.com/rmlabs/wsm/internal/gitcmd"
)

// newFakeRepo builds a fake repository carrying the given tags.
func newFakeRepo(t *testing.T, tags []string) gitcmd.Repo {
	t.Helper()
	f := gitcmd.NewFake(t.TempDir())
	f.TagList = tags
	return f
}
