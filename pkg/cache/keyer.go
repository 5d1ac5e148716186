package cache

// Keyer builds cache keys for each pipeline stage.
type Keyer interface {
	// HTTPKey identifies a raw HTTP response.
	HTTPKey(namespace, key string) string
	// ProjectionKey identifies the projection of a membership relation.
	ProjectionKey(relationHash string) string
	// MetricsKey identifies a metric table computed from a relation.
	MetricsKey(relationHash string, opts MetricsKeyOpts) string
}

// MetricsKeyOpts lists the analysis options that change metric values.
// Worker counts are deliberately absent: results do not depend on them.
type MetricsKeyOpts struct {
	PairCounting string `json:"pair_counting"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ProjectionKey returns "projection:<hash>".
func (DefaultKeyer) ProjectionKey(relationHash string) string {
	return hashKey("projection", relationHash)
}

// MetricsKey returns "metrics:<hash>" over the relation hash and options.
func (DefaultKeyer) MetricsKey(relationHash string, opts MetricsKeyOpts) string {
	return hashKey("metrics", relationHash, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer. The server uses it to
// keep uploaded relations apart from the relation it was started with.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default layout when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) ProjectionKey(relationHash string) string {
	return k.prefix + k.inner.ProjectionKey(relationHash)
}

func (k *ScopedKeyer) MetricsKey(relationHash string, opts MetricsKeyOpts) string {
	return k.prefix + k.inner.MetricsKey(relationHash, opts)
}
