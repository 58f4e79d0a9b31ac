package core

// Param is one bound column value. A nil Value binds a storage null.
type Param struct {
	Column string
	Value  any
}

// Command is a bindable query for one mapped table. Providers may fill Text
// with a ready statement; executors that generate SQL themselves ignore it.
type Command struct {
	Kind    QueryKind
	Table   string
	Key     string   // Primary key column
	Columns []string // All mapped columns in declaration order
	Text    string
	Params  []Param
}

// NewCommand returns an unbound command for meta's table.
func NewCommand(meta *Metadata, kind QueryKind) *Command {
	return &Command{
		Kind:    kind,
		Table:   meta.Table,
		Key:     meta.PrimaryKey.Column,
		Columns: meta.Columns(),
	}
}

// Bind appends a parameter. Binding the same column twice replaces the
// earlier value.
func (c *Command) Bind(column string, value any) {
	for i := range c.Params {
		if c.Params[i].Column == column {
			c.Params[i].Value = value
			return
		}
	}
	c.Params = append(c.Params, Param{Column: column, Value: value})
}

// Param returns the bound value for column.
func (c *Command) Param(column string) (any, bool) {
	for _, p := range c.Params {
		if p.Column == column {
			return p.Value, true
		}
	}
	return nil, false
}

// KeyValue returns the bound primary key value, nil when unbound or null.
func (c *Command) KeyValue() any {
	v, _ := c.Param(c.Key)
	return v
}

// DefaultProvider hands out unbound commands and leaves statement text to
// the executor.
type DefaultProvider struct{}

func (DefaultProvider) NewCommand(meta *Metadata, kind QueryKind) (*Command, error) {
	return NewCommand(meta, kind), nil
}
