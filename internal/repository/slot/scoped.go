package slot

import "context"

type scoped struct {
	repo  Repository
	scope string
}

// Scoped returns a view of repo whose keys are prefixed with scope, giving every
// browser session its own storage namespace.
func Scoped(repo Repository, scope string) Repository {
	return &scoped{repo: repo, scope: scope}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, s.key(key))
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, s.key(key), value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.key(key))
}

func (s *scoped) key(key string) string {
	return s.scope + ":" + key
}
