package combine

import "maps"

// Option configures a Combiner.
type Option func(*Combiner)

// WithTeamAliases merges aliases over the defaults. An alias mapping a team
// to itself disables the default for that team.
func WithTeamAliases(aliases map[string]string) Option {
	return func(c *Combiner) {
		maps.Copy(c.aliases, aliases)
	}
}

// WithoutDefaultAliases starts from an empty alias table.
func WithoutDefaultAliases() Option {
	return func(c *Combiner) {
		c.aliases = make(map[string]string)
	}
}
