package version

import (
	"context"

	"github.com/rmlabs/wsm/internal/gitcmd"
)

// Latest returns the semantically greatest release tag in the
// repository, or Zero when no tag matches the grammar.
func Latest(ctx context.Context, repo gitcmd.Repo) (Version, error) {
	tags, err := repo.Tags(ctx)
	if err != nil {
		return Version{}, err
	}

	latest := Zero
	found := false
	for _, tag := range tags {
		v, err := Parse(tag)
		if err != nil {
			continue // not a release tag
		}
		if !found || Compare(v, latest) > 0 {
			latest = v
			found = true
		}
	}

	return latest, nil
}

// NextHotfix scans the repository for hotfix tags on the given base and
// returns the base with the next ordinal. The first hotfix for a base
// is ordinal 1.
func NextHotfix(ctx context.Context, base Version, repo gitcmd.Repo) (Version, error) {
	tags, err := repo.Tags(ctx)
	if err != nil {
		return Version{}, err
	}

	base = base.Base()
	max := 0
	for _, tag := range tags {
		v, err := Parse(tag)
		if err != nil || !v.IsHotfix() {
			continue
		}
		if v.Base() == base && v.Hotfix > max {
			max = v.Hotfix
		}
	}

	base.Hotfix = max + 1
	return base, nil
}
