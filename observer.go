package inject

import "time"

// SkipReason says why discovery did not bind a descriptor.
type SkipReason string

const (
	SkipAbstract SkipReason = "abstract"
	SkipTags     SkipReason = "tags"
)

// Observer receives container and discovery events. Implementations must be
// safe for concurrent use.
type Observer interface {
	OnBind(key Key, kind ProviderKind)
	OnCollision(key Key)
	OnSkip(key Key, reason SkipReason)
	OnResolve(key Key, kind ProviderKind, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) OnBind(Key, ProviderKind) {}
func (nopObserver) OnCollision(Key) {}
func (nopObserver) OnSkip(Key, SkipReason) {}
func (nopObserver) OnResolve(Key, ProviderKind, time.Duration, error) {}
