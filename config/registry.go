package config

// Registry keys for the external resources the dashboard depends on.
const (
	KeyHistoryTable = "HISTORY_TABLE"
	KeyWorkdirStage = "WORKDIR_STAGE"
)

// Entry describes one named external resource: its logical key, the
// physical identifier it resolves to, and a human description.
type Entry struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Registry is the immutable set of configured external resources. Built
// once at startup; read-only lookups afterwards.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// NewRegistry builds the registry from the loaded configuration.
func NewRegistry(cfg *Config) *Registry {
	stage := cfg.StageBucket
	if cfg.StagePrefix != "" {
		stage += "/" + cfg.StagePrefix
	}

	entries := []Entry{
		{
			Key:         KeyHistoryTable,
			Value:       cfg.HistoryTable,
			Description: "Warehouse table holding pipeline execution history and metadata",
		},
		{
			Key:         KeyWorkdirStage,
			Value:       stage,
			Description: "Stage root holding per-run artifacts (reports, timelines, traces)",
		},
	}

	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		r.entries[e.Key] = e
		r.order = append(r.order, e.Key)
	}
	return r
}

// Lookup returns the entry registered under key.
func (r *Registry) Lookup(key string) (Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}
