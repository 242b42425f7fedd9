package engine

// CatalogConfig is the shape of the parsed JSON configuration document
// accepted by Load: {"movies": [{"movie": "...", "theatres": ["..."]}]}.
// It is intentionally a plain data tree so the JSON decoding step stays
// outside this package — callers decode into this type and hand it to
// Load.
type CatalogConfig struct {
	Movies []MovieConfig `json:"movies"`
}

// MovieConfig is one entry of CatalogConfig.Movies.
type MovieConfig struct {
	Movie    string   `json:"movie"`
	Theatres []string `json:"theatres"`
}

// Catalog is the root movie-name -> Movie map, fixed in shape once
// Load returns successfully. Mirrors CBooking::m_movies_map.
type Catalog struct {
	movies map[string]*Movie
	// names holds the movie names sorted lexically once at load, for
	// dump_status and CLI tree construction, which both want a stable
	// iteration order without sorting on every call.
	names []string
}

// Load builds a Catalog from a parsed configuration tree. Duplicate
// movie names or duplicate theatre names within a movie fail with
// ErrConflict; missing/empty names fail with ErrBadMessage. Mirrors
// CBooking::load_data, including its field-by-field validation order.
func Load(cfg CatalogConfig) (*Catalog, error) {
	if cfg.Movies == nil {
		return nil, ErrBadMessage
	}

	cat := &Catalog{movies: make(map[string]*Movie, len(cfg.Movies))}

	for _, mc := range cfg.Movies {
		if mc.Movie == "" {
			return nil, ErrBadMessage
		}
		if len(mc.Theatres) == 0 {
			return nil, ErrBadMessage
		}

		m := newMovie()
		for _, theatreName := range mc.Theatres {
			if theatreName == "" {
				return nil, ErrBadMessage
			}
			if _, exists := m.theatres[theatreName]; exists {
				return nil, ErrConflict
			}
			m.theatres[theatreName] = newTheatreReservation()
		}

		if _, exists := cat.movies[mc.Movie]; exists {
			return nil, ErrConflict
		}
		cat.movies[mc.Movie] = m
		cat.names = append(cat.names, mc.Movie)
	}

	sortStrings(cat.names)
	return cat, nil
}

// sortedMovieNames returns the catalog's movie names in natural
// (lexical) order, as dump_status and CLI-tree construction require.
func (c *Catalog) sortedMovieNames() []string {
	return c.names
}

// MovieNames returns the catalog's movie names in natural order, for
// callers outside this package that need to build a view over the
// catalog shape (the session layer's per-connection CLI tree).
func (c *Catalog) MovieNames() []string {
	return c.sortedMovieNames()
}

// TheatreNames returns a movie's theatre names in natural order, or
// ErrNotFound if movieName isn't in the catalog.
func (c *Catalog) TheatreNames(movieName string) ([]string, error) {
	m, ok := c.movies[movieName]
	if !ok {
		return nil, ErrNotFound
	}
	return m.sortedTheatreNames(), nil
}

// sortedTheatreNames returns a movie's theatre names in natural order.
func (m *Movie) sortedTheatreNames() []string {
	names := make([]string, 0, len(m.theatres))
	for name := range m.theatres {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
