package inject

import "go.uber.org/zap"

// ContainerOption configures NewContainer.
type ContainerOption interface {
	applyContainerOption(*containerOptions)
}

type containerOptions struct {
	tags     []Tag
	logger   *zap.Logger
	observer Observer
}

type containerOptionFunc func(*containerOptions)

func (f containerOptionFunc) applyContainerOption(o *containerOptions) {
	f(o)
}

// WithTags sets the container tags. Registrations apply to the container
// only when their effective tags share at least one tag with it.
func WithTags(tags ...Tag) ContainerOption {
	return containerOptionFunc(func(o *containerOptions) {
		o.tags = append(o.tags, tags...)
	})
}

// WithLogger sets the logger used for binding and discovery diagnostics.
func WithLogger(logger *zap.Logger) ContainerOption {
	return containerOptionFunc(func(o *containerOptions) {
		o.logger = logger
	})
}

// WithObserver sets the Observer notified of container events.
func WithObserver(observer Observer) ContainerOption {
	return containerOptionFunc(func(o *containerOptions) {
		o.observer = observer
	})
}
