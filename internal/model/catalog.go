package model

// Catalog is the fixed set of service names a visit can be recorded for.
type Catalog struct {
	names []string
	index map[string]struct{}
}

func NewCatalog(names []string) Catalog {
	c := Catalog{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if _, dup := c.index[n]; dup || n == "" {
			continue
		}
		c.index[n] = struct{}{}
		c.names = append(c.names, n)
	}
	return c
}

func (c Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns the services in configuration order.
func (c Catalog) Names() []string {
	return append([]string(nil), c.names...)
}
