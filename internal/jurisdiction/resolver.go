package jurisdiction

import "strings"

// Resolver maps a city name or postal code onto a jurisdiction's schema
// config. A miss is a normal outcome, not an error; callers skip the record.
type Resolver struct {
	byID   map[string]Config
	byZip  map[string]string
	byCity map[string]string
}

// NewResolver indexes the validated configs by id, postal code and
// lower-cased city name.
func NewResolver(configs []Config) *Resolver {
	r := &Resolver{
		byID:   make(map[string]Config, len(configs)),
		byZip:  map[string]string{},
		byCity: map[string]string{},
	}
	for _, cfg := range configs {
		r.byID[cfg.ID] = cfg
		for _, zip := range cfg.PostalCodes {
			r.byZip[strings.TrimSpace(zip)] = cfg.ID
		}
		for _, city := range cfg.Cities {
			r.byCity[strings.ToLower(strings.TrimSpace(city))] = cfg.ID
		}
	}
	return r
}

// Resolve tries the postal-code table first, then the case-insensitive city
// table.
func (r *Resolver) Resolve(cityOrZip string) (Config, bool) {
	key := strings.TrimSpace(cityOrZip)
	if key == "" {
		return Config{}, false
	}
	if id, ok := r.byZip[key]; ok {
		return r.byID[id], true
	}
	if id, ok := r.byCity[strings.ToLower(key)]; ok {
		return r.byID[id], true
	}
	return Config{}, false
}

// Get fetches a config by jurisdiction id.
func (r *Resolver) Get(id string) (Config, bool) {
	cfg, ok := r.byID[id]
	return cfg, ok
}

// All returns every registered config.
func (r *Resolver) All() []Config {
	configs := make([]Config, 0, len(r.byID))
	for _, cfg := range r.byID {
		configs = append(configs, cfg)
	}
	return configs
}
